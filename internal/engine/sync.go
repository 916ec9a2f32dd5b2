package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/queue"
	"github.com/roach88/tillsync/internal/reconcile"
	"github.com/roach88/tillsync/internal/schema"
	"github.com/roach88/tillsync/internal/store"
)

// MarkOrderSynced runs the synced-swap saga after the server confirms an
// order. The step order is load-bearing:
//
//  1. rewrite queued operations from the temp id to the server id
//  2. merge the server copy with the local copy, store under the server id
//  3. delete the temp-keyed record
//  4. broadcast order-synced
//
// The rewrite runs first so no window exists where a queued operation
// points at a record the store no longer holds. A crash between steps
// leaves both copies present; re-running the saga is idempotent.
func (e *Engine) MarkOrderSynced(ctx context.Context, localID string, serverOrder model.Order) (model.Order, error) {
	if !model.UsableKey(serverOrder.ID) {
		return model.Order{}, fmt.Errorf("mark order synced: server order has no usable id")
	}

	local, err := e.store.GetOrder(ctx, localID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.Order{}, fmt.Errorf("mark order synced: %w", err)
	}

	// Step 1: queue rewrite, before the record swap.
	if model.IsOfflineID(localID) {
		if _, err := reconcile.RewritePendingOperations(ctx, e.store, localID, serverOrder.ID); err != nil {
			return model.Order{}, fmt.Errorf("mark order synced: %w", err)
		}
	}

	// Step 2: merge and store under the canonical key.
	merged := reconcile.MergeOrders(serverOrder, local)
	if merged.OfflineID == "" && model.IsOfflineID(localID) {
		merged.OfflineID = localID
	}
	stored, err := e.store.PutOrder(ctx, merged)
	if err != nil {
		return model.Order{}, fmt.Errorf("mark order synced: %w", err)
	}

	// Step 3: drop the temp-keyed duplicate.
	if localID != stored.ID {
		if err := e.store.DeleteOrder(ctx, localID); err != nil {
			return model.Order{}, fmt.Errorf("mark order synced: %w", err)
		}
	}

	// Step 4: tell the other contexts.
	e.publish(ctx, model.MsgOrderSynced, orderRef{ID: stored.ID, OrderNumber: stored.OrderNumber})
	return stored, nil
}

// AddPendingOperation queues a deferred mutation directly. Collaborators
// that talk to endpoints the engine has no helper for use this.
func (e *Engine) AddPendingOperation(ctx context.Context, op model.PendingOperation) (int64, error) {
	return e.queue.Enqueue(ctx, op)
}

// ListPendingOperations returns the replay backlog in FIFO order.
func (e *Engine) ListPendingOperations(ctx context.Context) ([]model.PendingOperation, error) {
	return e.queue.ListPending(ctx)
}

// ListFailedOperations returns entries awaiting operator attention.
func (e *Engine) ListFailedOperations(ctx context.Context) ([]model.PendingOperation, error) {
	return e.queue.ListFailed(ctx)
}

// RetryOperation resets a failed entry for the next replay pass.
func (e *Engine) RetryOperation(ctx context.Context, id int64) error {
	return e.queue.Retry(ctx, id)
}

// Replay runs one queue replay pass against the backend, feeding each
// confirmed response into reconciliation.
func (e *Engine) Replay(ctx context.Context) (queue.ReplayReport, error) {
	if e.client == nil {
		return queue.ReplayReport{}, fmt.Errorf("replay: no backend client configured")
	}
	return e.queue.Replay(ctx, e.client, e.onReplayed)
}

// onReplayed is the reconciliation hook for confirmed replays.
func (e *Engine) onReplayed(ctx context.Context, op model.PendingOperation, response []byte) error {
	switch op.Type {
	case model.OpCreateOrder:
		serverOrder, err := e.decodeServerOrder(response)
		if err != nil {
			return fmt.Errorf("replayed %s: %w", op.Type, err)
		}
		localID := op.OfflineID
		if localID == "" {
			localID = serverOrder.OfflineID
		}
		if _, err := e.MarkOrderSynced(ctx, localID, serverOrder); err != nil {
			return err
		}
		return nil

	default:
		// Status-style mutations: the target order is now confirmed.
		// When the response carries the server copy, merge it; otherwise
		// just clear the unsynced flag.
		if serverOrder, err := e.decodeServerOrder(response); err == nil && model.UsableKey(serverOrder.ID) {
			_, err := e.MarkOrderSynced(ctx, serverOrder.ID, serverOrder)
			return err
		}
		id := op.OfflineID
		if id == "" {
			return nil
		}
		o, err := e.store.GetOrder(ctx, id)
		if err != nil {
			return nil
		}
		o.Synced = true
		o.OfflineStatusUpdated = false
		if _, err := e.store.PutOrder(ctx, o); err != nil {
			return err
		}
		return nil
	}
}

// SyncNow runs a full sync-and-refresh pass. Triggered externally when
// connectivity returns: replay the backlog, wait out the stabilization
// delay so the network settles, then refresh the server caches.
func (e *Engine) SyncNow(ctx context.Context) (queue.ReplayReport, error) {
	e.publish(ctx, model.MsgSyncStarted, nil)

	report, err := e.Replay(ctx)
	if err != nil {
		return report, fmt.Errorf("sync: %w", err)
	}

	if e.stabilization > 0 {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(e.stabilization):
		}
	}

	// Cache refreshes are independent; one failing does not stop the rest.
	refreshErrs := 0
	if err := e.RefreshCatalog(ctx); err != nil {
		refreshErrs++
	}
	if err := e.RefreshCustomers(ctx); err != nil {
		refreshErrs++
	}
	if err := e.RefreshTables(ctx); err != nil {
		refreshErrs++
	}

	e.publish(ctx, model.MsgSyncCompleted, report)
	if refreshErrs > 0 {
		return report, fmt.Errorf("sync: %d cache refresh(es) failed", refreshErrs)
	}
	return report, nil
}

// decodeServerOrder validates a server payload against the order schema,
// then folds it into the canonical form.
func (e *Engine) decodeServerOrder(raw []byte) (model.Order, error) {
	if len(raw) == 0 {
		return model.Order{}, fmt.Errorf("empty server order payload")
	}
	if err := schema.Validate(schema.KindOrder, raw); err != nil {
		return model.Order{}, err
	}
	return model.DecodeOrder(raw)
}
