package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/velvetlabs/authcore"
)

// OTPStore implements authcore.OTPStore on a SQLite database. TTL handling
// lives with the caller; this store keeps records until deleted or
// replaced.
type OTPStore struct {
	db *sql.DB
}

func NewOTPStore(db *sql.DB) *OTPStore {
	return &OTPStore{db: db}
}

func (s *OTPStore) Find(ctx context.Context, email string, purpose authcore.OTPPurpose) (*authcore.OTPRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT email, purpose, code_hash, failed_attempts, created_at, expires_at
		 FROM otps WHERE email = ? AND purpose = ?`, email, string(purpose))

	var rec authcore.OTPRecord
	var p string
	err := row.Scan(&rec.Email, &p, &rec.CodeHash, &rec.FailedAttempts, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	rec.Purpose = authcore.OTPPurpose(p)
	return &rec, nil
}

func (s *OTPStore) Create(ctx context.Context, rec *authcore.OTPRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO otps (email, purpose, code_hash, failed_attempts, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email, purpose) DO UPDATE SET
		   code_hash = excluded.code_hash,
		   failed_attempts = excluded.failed_attempts,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		rec.Email, string(rec.Purpose), rec.CodeHash, rec.FailedAttempts, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, email string, purpose authcore.OTPPurpose) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE otps SET failed_attempts = failed_attempts + 1 WHERE email = ? AND purpose = ?`,
		email, string(purpose))
	if err != nil {
		return fmt.Errorf("increment otp attempts: %w", err)
	}
	return nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose authcore.OTPPurpose) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM otps WHERE email = ? AND purpose = ?`, email, string(purpose))
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
