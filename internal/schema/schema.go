package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed records.cue
var recordsCUE string

// Kind selects which schema definition a payload is validated against.
type Kind string

const (
	KindOrder    Kind = "#Order"
	KindMenuItem Kind = "#MenuItem"
	KindCategory Kind = "#Category"
	KindCustomer Kind = "#Customer"
	KindTable    Kind = "#Table"
)

var (
	compileOnce sync.Once
	compiled    cue.Value
	compileErr  error
)

// root compiles the embedded schema source once per process.
func root() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		compiled = ctx.CompileString(recordsCUE)
		if err := compiled.Err(); err != nil {
			compileErr = fmt.Errorf("compile record schemas: %w", err)
		}
	})
	return compiled, compileErr
}

// Validate unifies raw JSON bytes with the schema for kind.
// The payload must be a JSON object of that kind.
func Validate(kind Kind, raw []byte) error {
	rv, err := root()
	if err != nil {
		return err
	}
	def := rv.LookupPath(cue.ParsePath(string(kind)))
	if err := def.Err(); err != nil {
		return fmt.Errorf("schema %s: %w", kind, err)
	}
	// JSON is a subset of CUE, so the payload compiles directly.
	data := rv.Context().CompileBytes(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("parse %s payload: %w", kind, err)
	}
	unified := def.Unify(data)
	// Concrete makes the missing-required-field check explicit: a required
	// field the payload omits stays non-concrete after unification.
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s payload rejected: %w", kind, err)
	}
	return nil
}
