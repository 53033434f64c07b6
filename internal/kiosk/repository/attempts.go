package repository

import (
	"context"
	"time"

	"github.com/pastrypal/pastrypal-backend/internal/kiosk/service"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
)

// AttemptRepository persists passkey attempt counters.
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Get returns the counter row for the employee, creating a zero row
// if none exists yet.
func (r *AttemptRepository) Get(ctx context.Context, employeeID string) (*service.Attempt, error) {
	var attempt service.Attempt

	query := `
		INSERT INTO passkey_attempts (employee_id, attempts_count, locked_until)
		VALUES ($1, 0, NULL)
		ON CONFLICT (employee_id) DO UPDATE SET employee_id = EXCLUDED.employee_id
		RETURNING employee_id, attempts_count, locked_until
	`
	if err := r.db.GetContext(ctx, &attempt, query, employeeID); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &attempt, nil
}

// Save persists the counter and lock expiry.
func (r *AttemptRepository) Save(ctx context.Context, employeeID string, count int, lockedUntil *time.Time) error {
	query := `
		INSERT INTO passkey_attempts (employee_id, attempts_count, locked_until)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO UPDATE
		SET attempts_count = EXCLUDED.attempts_count,
		    locked_until = EXCLUDED.locked_until,
		    updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, employeeID, count, lockedUntil); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
