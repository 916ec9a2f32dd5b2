// Package harness provides a scenario-driven conformance harness for the
// sync engine.
//
// Scenarios are YAML files describing a sequence of engine operations
// (save an order, advance a status, go online, replay the queue) together
// with scripted backend responses and assertions on the final state. Each
// scenario runs against a fresh in-memory store with an inert broadcast
// bus, so runs are isolated and hermetic.
//
// Execution produces a trace: one event per step, capturing the resulting
// order or queue state. Traces are compared against golden files with
// goldie; minted OFFLINE ids are normalized to stable placeholders
// (OFFLINE-1, OFFLINE-2, ...) so traces are deterministic despite the
// time-and-random components of real temporary ids. Timestamps are
// excluded from traces for the same reason.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
package harness
