// Package schema validates server-origin payloads against embedded CUE
// schemas at the normalization boundary.
//
// Validation runs exactly once per record, where it crosses the external
// interface. Read paths treat a validation failure as "skip this record";
// write paths surface it as an error.
package schema
