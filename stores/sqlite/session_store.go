package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/velvetlabs/authcore/session"
)

// SessionStore implements session.Store on a SQLite database. Expired rows
// are treated as misses and removed lazily on lookup.
type SessionStore struct {
	db *sql.DB

	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.SessionID, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, f session.Filter) (*session.Session, error) {
	query, args := filterQuery(`SELECT session_id, user_id, created_at, expires_at FROM sessions`, f)
	if args == nil {
		return nil, nil
	}

	var sess session.Session
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&sess.SessionID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.now().Unix() >= sess.ExpiresAt {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sess.SessionID)
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, f session.Filter) error {
	query, args := filterQuery(`DELETE FROM sessions`, f)
	if args == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// filterQuery appends a WHERE clause for the set filter fields. A nil args
// return means the filter is empty and matches nothing.
func filterQuery(base string, f session.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if len(conds) == 0 {
		return base, nil
	}
	return base + " WHERE " + strings.Join(conds, " AND "), args
}
