package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

const (
	maxPasskeyAttempts  = 5
	passkeyLockDuration = 5 * time.Minute
)

// Attempt is the failed-attempt counter state for one employee.
type Attempt struct {
	EmployeeID    string     `db:"employee_id"`
	AttemptsCount int        `db:"attempts_count"`
	LockedUntil   *time.Time `db:"locked_until"`
}

// AttemptStore persists per-employee failed attempt counters.
type AttemptStore interface {
	// Get returns the counter row for the employee, creating a zero row
	// if none exists yet.
	Get(ctx context.Context, employeeID string) (*Attempt, error)
	// Save persists the counter and lock expiry.
	Save(ctx context.Context, employeeID string, count int, lockedUntil *time.Time) error
}

// CheckResult is the outcome of a passkey check.
type CheckResult struct {
	OK bool
	// LockedUntil is set when the employee is locked out, either from a
	// prior lock still in force or a lock triggered by this attempt.
	LockedUntil *time.Time
}

// PasskeyGuard validates kiosk passkeys and enforces lockout after
// repeated failures. Five wrong entries lock the employee out for five
// minutes; the counter resets when the lock is applied, so the lock
// expiring grants a fresh set of attempts.
type PasskeyGuard struct {
	attempts AttemptStore
	logger   *logger.Logger
	now      func() time.Time
}

// NewPasskeyGuard creates a passkey guard.
func NewPasskeyGuard(attempts AttemptStore, log *logger.Logger) *PasskeyGuard {
	return &PasskeyGuard{
		attempts: attempts,
		logger:   log.WithComponent("kiosk.passkey"),
		now:      time.Now,
	}
}

// Check validates the passkey against the stored bcrypt hash.
// An active lock fails the check without consuming an attempt.
func (g *PasskeyGuard) Check(ctx context.Context, employeeID, passkeyHash, passkey string) (*CheckResult, error) {
	attempt, err := g.attempts.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := g.now()
	if attempt.LockedUntil != nil && attempt.LockedUntil.After(now) {
		return &CheckResult{OK: false, LockedUntil: attempt.LockedUntil}, nil
	}

	if passkeyHash == "" {
		return &CheckResult{OK: false}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(passkeyHash), []byte(passkey)) != nil {
		next := attempt.AttemptsCount + 1
		if next >= maxPasskeyAttempts {
			lockedUntil := now.Add(passkeyLockDuration)
			if err := g.attempts.Save(ctx, employeeID, 0, &lockedUntil); err != nil {
				return nil, err
			}
			g.logger.Warn().
				Str("employee_id", employeeID).
				Time("locked_until", lockedUntil).
				Msg("employee locked out after repeated passkey failures")
			return &CheckResult{OK: false, LockedUntil: &lockedUntil}, nil
		}

		if err := g.attempts.Save(ctx, employeeID, next, nil); err != nil {
			return nil, err
		}
		return &CheckResult{OK: false}, nil
	}

	if attempt.AttemptsCount != 0 || attempt.LockedUntil != nil {
		if err := g.attempts.Save(ctx, employeeID, 0, nil); err != nil {
			return nil, err
		}
	}

	return &CheckResult{OK: true}, nil
}
