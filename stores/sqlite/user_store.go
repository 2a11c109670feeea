package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/velvetlabs/authcore"
)

// UserStore implements authcore.UserStore on a SQLite database.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `user_id, email, name, password_hash, verified, mfa_enabled, mfa_secret,
	password_failed_attempts, mfa_failed_attempts, mfa_locked_until, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*authcore.User, error) {
	var u authcore.User
	var verified, mfaEnabled int
	var lockedUntil sql.NullInt64
	var createdAt, updatedAt int64
	err := scanner.Scan(&u.UserID, &u.Email, &u.Name, &u.PasswordHash, &verified, &mfaEnabled,
		&u.MFASecret, &u.PasswordFailedAttempts, &u.MFAFailedAttempts, &lockedUntil, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	u.Verified = verified != 0
	u.MFAEnabled = mfaEnabled != 0
	if lockedUntil.Valid {
		t := time.Unix(lockedUntil.Int64, 0)
		u.MFALockedUntil = &t
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, userID string) (*authcore.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*authcore.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) Create(ctx context.Context, u *authcore.User) error {
	var lockedUntil any
	if u.MFALockedUntil != nil {
		lockedUntil = u.MFALockedUntil.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Email, u.Name, u.PasswordHash, boolInt(u.Verified), boolInt(u.MFAEnabled),
		u.MFASecret, u.PasswordFailedAttempts, u.MFAFailedAttempts, lockedUntil,
		u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.update(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE user_id = ?`,
		hash, time.Now().Unix(), userID)
}

func (s *UserStore) SetVerified(ctx context.Context, userID string) error {
	return s.update(ctx, `UPDATE users SET verified = 1, updated_at = ? WHERE user_id = ?`,
		time.Now().Unix(), userID)
}

func (s *UserStore) SetPasswordFailedAttempts(ctx context.Context, userID string, attempts int) error {
	return s.update(ctx, `UPDATE users SET password_failed_attempts = ?, updated_at = ? WHERE user_id = ?`,
		attempts, time.Now().Unix(), userID)
}

func (s *UserStore) SetMFAState(ctx context.Context, userID string, enabled bool, secret string) error {
	return s.update(ctx, `UPDATE users SET mfa_enabled = ?, mfa_secret = ?, updated_at = ? WHERE user_id = ?`,
		boolInt(enabled), secret, time.Now().Unix(), userID)
}

func (s *UserStore) SetMFAFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	var locked any
	if lockedUntil != nil {
		locked = lockedUntil.Unix()
	}
	return s.update(ctx, `UPDATE users SET mfa_failed_attempts = ?, mfa_locked_until = ?, updated_at = ? WHERE user_id = ?`,
		attempts, locked, time.Now().Unix(), userID)
}

func (s *UserStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
