// Package broadcast propagates "something changed" notifications between
// POS contexts that share one local store, so a second open instance does
// not act on stale in-memory state.
//
// The bus rides Redis pub/sub on a single channel with a JSON envelope.
// Two invariants:
//
//   - Self-suppression: a context never receives its own messages. Every
//     envelope carries the publisher's origin id; delivery drops matches.
//   - Degradation: when Redis is unreachable at construction, the bus is
//     inert - Publish is a no-op and Subscribe returns a no-op
//     unsubscribe. The rest of the system works without cross-context
//     awareness rather than failing.
//
// Delivery is best effort within one session. The bus is a liveness aid,
// never a correctness mechanism; correctness comes from the store and the
// reconciliation rules.
package broadcast
