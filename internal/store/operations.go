package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
)

// Pending-operation rows back the deferred-mutation queue. The queue's
// FIFO contract lives here: listings order by (created_at, id) ascending.

// InsertPendingOperation appends a queue row and returns its assigned id.
func (s *Store) InsertPendingOperation(ctx context.Context, op model.PendingOperation) (int64, error) {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	if op.Status == "" {
		op.Status = model.OpPending
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_operations
		(type, endpoint, method, payload, offline_id, status, retry_count,
		 last_attempt, error, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(op.Type),
		op.Endpoint,
		op.Method,
		string(op.Payload),
		op.OfflineID,
		string(op.Status),
		op.RetryCount,
		formatNullableTime(op.LastAttempt),
		op.Error,
		op.Fingerprint,
		op.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert pending operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert pending operation: last insert id: %w", err)
	}
	return id, nil
}

const operationColumns = `id, type, endpoint, method, payload, offline_id,
	status, retry_count, last_attempt, error, fingerprint, created_at`

// GetPendingOperation returns one queue row by id.
func (s *Store) GetPendingOperation(ctx context.Context, id int64) (model.PendingOperation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM pending_operations WHERE id = ?`, id)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return model.PendingOperation{}, ErrNotFound
	}
	if err != nil {
		return model.PendingOperation{}, fmt.Errorf("get pending operation %d: %w", id, err)
	}
	return op, nil
}

// PendingOperations returns queue rows with the given status in FIFO
// submission order.
func (s *Store) PendingOperations(ctx context.Context, status model.OperationStatus) ([]model.PendingOperation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+operationColumns+` FROM pending_operations
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("pending operations: %w", err)
	}
	defer rows.Close()

	return collectOperations(rows)
}

// PendingOperationsReferencing returns pending-status rows whose endpoint,
// payload, or offline_id column references the given identifier. Used by
// the ID-rewriting pass when a temp order is confirmed synced.
func (s *Store) PendingOperationsReferencing(ctx context.Context, offlineID string) ([]model.PendingOperation, error) {
	like := "%" + offlineID + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+operationColumns+` FROM pending_operations
		WHERE status = 'pending'
		  AND (offline_id = ? OR endpoint LIKE ? OR payload LIKE ?)
		ORDER BY created_at ASC, id ASC
	`, offlineID, like, like)
	if err != nil {
		return nil, fmt.Errorf("pending operations referencing %s: %w", offlineID, err)
	}
	defer rows.Close()

	return collectOperations(rows)
}

// FindPendingByFingerprint returns an existing pending row with the same
// content fingerprint, if any. Enables enqueue dedup without a UNIQUE
// constraint (failed rows may legitimately share a fingerprint).
func (s *Store) FindPendingByFingerprint(ctx context.Context, fingerprint string) (model.PendingOperation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+operationColumns+` FROM pending_operations
		WHERE status = 'pending' AND fingerprint = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, fingerprint)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return model.PendingOperation{}, ErrNotFound
	}
	if err != nil {
		return model.PendingOperation{}, fmt.Errorf("find pending by fingerprint: %w", err)
	}
	return op, nil
}

// UpdatePendingOperation rewrites a queue row in place.
func (s *Store) UpdatePendingOperation(ctx context.Context, op model.PendingOperation) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_operations SET
			type = ?, endpoint = ?, method = ?, payload = ?, offline_id = ?,
			status = ?, retry_count = ?, last_attempt = ?, error = ?, fingerprint = ?
		WHERE id = ?
	`,
		string(op.Type),
		op.Endpoint,
		op.Method,
		string(op.Payload),
		op.OfflineID,
		string(op.Status),
		op.RetryCount,
		formatNullableTime(op.LastAttempt),
		op.Error,
		op.Fingerprint,
		op.ID,
	)
	if err != nil {
		return fmt.Errorf("update pending operation %d: %w", op.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pending operation %d: rows affected: %w", op.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingOperation removes a queue row. Returns ErrNotFound if the
// row was already gone, so callers can tell a repeat completion apart.
func (s *Store) DeletePendingOperation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending operation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending operation %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOperation(r rowScanner) (model.PendingOperation, error) {
	var (
		op                    model.PendingOperation
		opType, status        string
		payload               string
		lastAttempt, created  string
	)
	err := r.Scan(
		&op.ID, &opType, &op.Endpoint, &op.Method, &payload, &op.OfflineID,
		&status, &op.RetryCount, &lastAttempt, &op.Error, &op.Fingerprint,
		&created,
	)
	if err != nil {
		return model.PendingOperation{}, err
	}
	op.Type = model.OperationType(opType)
	op.Status = model.OperationStatus(status)
	if payload != "" {
		op.Payload = []byte(payload)
	}
	op.LastAttempt = parseTime(lastAttempt)
	op.CreatedAt = parseTime(created)
	return op, nil
}

func collectOperations(rows *sql.Rows) ([]model.PendingOperation, error) {
	ops := []model.PendingOperation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending operations: %w", err)
	}
	return ops, nil
}

func formatNullableTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
