// Package queue guarantees that every server-bound mutation made while
// disconnected (or while a direct call failed) is eventually attempted, in
// submission order, with bounded retry.
//
// Entries live in the local store's pending_operations kind. An entry is
// deleted on confirmed replay (Complete) and marked failed after the retry
// bound (Fail); failed entries are excluded from automatic replay and stay
// visible for operator inspection.
//
// The replay driver continues past a failure to keep one stuck operation
// from blocking unrelated ones, but skips subsequent operations targeting
// the same offline resource for that pass: a status update must never be
// replayed while the order's own creation is still failing.
package queue
