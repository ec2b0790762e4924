package db

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// Lockout policy for failed credential checks: after FreeAttempts failures
// every further failure locks the key for 2^(n-FreeAttempts) minutes, capped
// at 2^MaxLockoutPower.
const (
	FreeAttempts    = 5
	MaxLockoutPower = 5
)

// LockoutFor returns how long a key stays locked after its failed-th
// consecutive failure.
func LockoutFor(failed int) time.Duration {
	if failed < FreeAttempts {
		return 0
	}
	power := math.Min(float64(failed-FreeAttempts), MaxLockoutPower)
	return time.Duration(math.Pow(2, power)) * time.Minute
}

// CheckAttemptAllowed reports whether key is currently locked out and for
// how much longer.
func (s *Store) CheckAttemptAllowed(key string) (locked bool, retryAfter time.Duration, err error) {
	var ignored int
	var lockedUntil sqlNullTime
	err = s.db.QueryRow(`SELECT failed_count, locked_until FROM login_attempts WHERE key = ?`, key).Scan(&ignored, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	if !lockedUntil.Valid {
		return false, 0, nil
	}
	if lockedUntil.Time.After(time.Now()) {
		return true, time.Until(lockedUntil.Time), nil
	}
	return false, 0, nil
}

// RegisterFailedAttempt counts a failure for key and returns the lockout it
// triggered, zero when none.
func (s *Store) RegisterFailedAttempt(key string) (time.Duration, error) {
	var failed int
	var locked sqlNullTime
	err := s.db.QueryRow(`SELECT failed_count, locked_until FROM login_attempts WHERE key = ?`, key).Scan(&failed, &locked)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		failed = 0
	}
	failed++
	lockDuration := LockoutFor(failed)
	var lockedUntil any
	if lockDuration > 0 {
		lockedUntil = time.Now().Add(lockDuration).UTC()
	}
	_, err = s.db.Exec(`INSERT INTO login_attempts(key, failed_count, locked_until, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET failed_count = excluded.failed_count, locked_until = excluded.locked_until, updated_at = CURRENT_TIMESTAMP`,
		key, failed, lockedUntil)
	if err != nil {
		return 0, fmt.Errorf("register failed attempt: %w", err)
	}
	return lockDuration, nil
}

func (s *Store) ResetAttempts(key string) error {
	_, err := s.db.Exec(`DELETE FROM login_attempts WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// ListAttempts returns every tracked key, most recently updated first.
func (s *Store) ListAttempts() ([]LoginAttempt, error) {
	rows, err := s.db.Query(`SELECT key, failed_count, locked_until, updated_at FROM login_attempts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	var out []LoginAttempt
	for rows.Next() {
		var a LoginAttempt
		var lockedUntil, updated sqlNullTime
		if err := rows.Scan(&a.Key, &a.Failed, &lockedUntil, &updated); err != nil {
			return nil, err
		}
		if lockedUntil.Valid {
			t := lockedUntil.Time
			a.LockedUntil = &t
		}
		a.UpdatedAt = updated.Time
		out = append(out, a)
	}
	return out, rows.Err()
}
