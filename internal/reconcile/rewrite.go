package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// RewritePendingOperations replaces every reference to a temporary order
// identifier with the server-assigned one, across all pending-status queue
// rows. References are matched three ways: the full OFFLINE-... string, its
// parsed numeric timestamp component (some payloads carry only that), and
// any raw occurrence inside endpoint or payload text.
//
// This must run, and complete, before the local temp-keyed order record is
// deleted or replaced; otherwise a replay could target a resource that no
// longer exists locally. Each row is updated in its own store call, outside
// any larger transaction, to avoid lock contention with the store mutation
// that follows.
//
// Returns the number of rows rewritten.
func RewritePendingOperations(ctx context.Context, st *store.Store, oldTempID, newServerID string) (int, error) {
	if oldTempID == "" || oldTempID == newServerID {
		return 0, nil
	}

	ops, err := st.PendingOperationsReferencing(ctx, oldTempID)
	if err != nil {
		return 0, fmt.Errorf("rewrite pending operations: %w", err)
	}

	// The numeric-suffix form only participates when it cannot collide
	// with unrelated digits: match it as the value of an id-ish JSON field.
	suffix := model.OfflineIDSuffix(oldTempID)

	rewritten := 0
	for _, op := range ops {
		changed := false

		if strings.Contains(op.Endpoint, oldTempID) {
			op.Endpoint = strings.ReplaceAll(op.Endpoint, oldTempID, newServerID)
			changed = true
		}
		if op.OfflineID == oldTempID {
			op.OfflineID = newServerID
			changed = true
		}
		if len(op.Payload) > 0 {
			payload := rewritePayload(op.Payload, oldTempID, suffix, newServerID)
			if !bytes.Equal(payload, op.Payload) {
				op.Payload = payload
				changed = true
			}
		}

		if !changed {
			continue
		}
		op.Fingerprint = model.Fingerprint(op.Type, op.Endpoint, op.Payload)
		if err := st.UpdatePendingOperation(ctx, op); err != nil {
			return rewritten, fmt.Errorf("rewrite pending operation %d: %w", op.ID, err)
		}
		rewritten++
	}
	return rewritten, nil
}

// rewritePayload replaces temp-id references inside raw JSON text. The full
// string form is replaced wherever it occurs (quoted values, embedded
// paths); the bare numeric form only as a complete id-field value.
func rewritePayload(payload []byte, oldTempID string, suffix int64, newServerID string) []byte {
	out := bytes.ReplaceAll(payload, []byte(oldTempID), []byte(newServerID))
	if suffix == 0 {
		return out
	}
	n := strconv.FormatInt(suffix, 10)
	for _, field := range []string{"offlineId", "offline_id", "id", "orderId", "order_id"} {
		// "field":<suffix>  and  "field":"<suffix>"
		out = bytes.ReplaceAll(out,
			[]byte(fmt.Sprintf("%q:%s", field, n)),
			[]byte(fmt.Sprintf("%q:%q", field, newServerID)))
		out = bytes.ReplaceAll(out,
			[]byte(fmt.Sprintf("%q:%q", field, n)),
			[]byte(fmt.Sprintf("%q:%q", field, newServerID)))
	}
	return out
}
