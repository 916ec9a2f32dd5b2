package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Canonical JSON for content fingerprints: object keys sorted, no HTML
// escaping, strings NFC-normalized, numbers preserved verbatim via
// json.Number. Two payloads that differ only in key order or Unicode
// normalization form produce the same fingerprint.

// CanonicalJSON re-serializes raw JSON into canonical form.
// Returns an error if raw is not valid JSON.
func CanonicalJSON(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		return writeCanonicalString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonical json: unsupported type %T", v)
	}
	return nil
}

// writeCanonicalString NFC-normalizes then encodes without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return fmt.Errorf("canonical json string: %w", err)
	}
	buf.Write(bytes.TrimRight(sb.Bytes(), "\n"))
	return nil
}

// Domain prefix for operation fingerprints. Version suffix enables future
// algorithm migration without colliding with old hashes.
const domainOperation = "tillsync/operation/v1"

// Fingerprint computes the content hash identifying a queued mutation:
// SHA256(domain + 0x00 + type + 0x00 + endpoint + 0x00 + canonical payload).
// The null separators prevent boundary ambiguity between components.
// An invalid payload yields a fingerprint over the raw bytes rather than an
// error; dedup degrades, enqueue does not fail.
func Fingerprint(opType OperationType, endpoint string, payload []byte) string {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		canonical = payload
	}
	h := sha256.New()
	h.Write([]byte(domainOperation))
	h.Write([]byte{0x00})
	h.Write([]byte(opType))
	h.Write([]byte{0x00})
	h.Write([]byte(endpoint))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}
