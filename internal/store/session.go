package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
)

// The session kind holds exactly one row under a fixed key.

// PutSession stores the local user session, replacing any previous one.
func (s *Store) PutSession(ctx context.Context, sess model.UserSession) error {
	if !model.UsableKey(sess.UserID) {
		return invalidKey("userSession", "session has no user id")
	}
	if sess.SavedAt.IsZero() {
		sess.SavedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_session (key, user_id, token, role, saved_at)
		VALUES ('session', ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			user_id = excluded.user_id,
			token = excluded.token,
			role = excluded.role,
			saved_at = excluded.saved_at
	`, sess.UserID, sess.Token, sess.Role, sess.SavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Session returns the stored session, or ErrNotFound when logged out.
func (s *Store) Session(ctx context.Context) (model.UserSession, error) {
	var sess model.UserSession
	var savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, token, role, saved_at FROM user_session WHERE key = 'session'`).
		Scan(&sess.UserID, &sess.Token, &sess.Role, &savedAt)
	if err == sql.ErrNoRows {
		return model.UserSession{}, ErrNotFound
	}
	if err != nil {
		return model.UserSession{}, fmt.Errorf("get session: %w", err)
	}
	sess.SavedAt = parseTime(savedAt)
	return sess, nil
}

// ClearSession removes the stored session. Clearing an absent session is
// a no-op.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_session WHERE key = 'session'`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
