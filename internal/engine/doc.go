// Package engine is the collaborator-facing surface of the sync system:
// one process-wide context object wiring the local store, the pending
// operation queue, the reconciliation rules, and the broadcast bus.
//
// UI writes go to the local store first and, when the backend cannot
// confirm them immediately, also enqueue a pending operation. Connectivity
// restoration triggers a sync pass: the queue replays in FIFO order, each
// confirmed response feeds the reconciliation merge, and the caches refresh
// after a short stabilization delay. Every local mutation broadcasts a
// notification so other open contexts refresh instead of reading stale
// copies.
//
// Every entry point returns (value, error); collaborators catch and
// present, never crash.
package engine
