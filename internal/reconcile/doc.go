// Package reconcile decides the authoritative value of every field that can
// diverge between a server copy and a local copy of an order, and keeps the
// pending-operation queue consistent when identifiers change.
//
// The merge is not OT or CRDT. Order lifecycle fields are monotonic in
// practice, so a fixed status hierarchy per axis plus a most-advanced-wins
// rule stands in for distributed locking between uncoordinated contexts
// sharing one store. Everything outside the three status axes belongs to
// the server once a server copy exists.
package reconcile
