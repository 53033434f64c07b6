package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

// Correction request statuses
const (
	CorrectionPending  = "PENDING"
	CorrectionApproved = "APPROVED"
	CorrectionRejected = "REJECTED"
)

// Correction is a proposed edit to an attendance log awaiting admin review.
type Correction struct {
	ID               string         `db:"id" json:"id"`
	AttendanceLogID  string         `db:"attendance_log_id" json:"attendance_log_id"`
	RequestedBy      string         `db:"requested_by" json:"requested_by"`
	RequestedTimeIn  time.Time      `db:"requested_time_in" json:"requested_time_in"`
	RequestedTimeOut *time.Time     `db:"requested_time_out" json:"requested_time_out,omitempty"`
	Reason           string         `db:"reason" json:"reason"`
	Status           string         `db:"status" json:"status"`
	ReviewedBy       sql.NullString `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes      sql.NullString `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

const correctionColumns = `id, attendance_log_id, requested_by, requested_time_in,
	requested_time_out, reason, status, reviewed_by, reviewed_at, review_notes, created_at`

// CorrectionRepository handles correction request persistence
type CorrectionRepository struct {
	db *database.DB
}

// NewCorrectionRepository creates a new correction repository
func NewCorrectionRepository(db *database.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// Create inserts a new pending correction request
func (r *CorrectionRepository) Create(ctx context.Context, c *Correction) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Status = CorrectionPending

	query := `
		INSERT INTO attendance_correction_requests
			(id, attendance_log_id, requested_by, requested_time_in, requested_time_out, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.AttendanceLogID, c.RequestedBy, c.RequestedTimeIn,
		c.RequestedTimeOut, c.Reason, c.Status,
	).Scan(&c.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// HasPendingForRequester reports whether the requester already has a pending
// request against the given log.
func (r *CorrectionRepository) HasPendingForRequester(ctx context.Context, logID, requesterID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_correction_requests
			WHERE attendance_log_id = $1 AND requested_by = $2 AND status = $3
		)
	`
	err := r.db.GetContext(ctx, &exists, query, logID, requesterID, CorrectionPending)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return false, appErr
		}
		return false, err
	}
	return exists, nil
}

// GetByID gets a correction request by ID
func (r *CorrectionRepository) GetByID(ctx context.Context, id string) (*Correction, error) {
	var c Correction

	query := `SELECT ` + correctionColumns + ` FROM attendance_correction_requests WHERE id = $1`
	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("correction request")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &c, nil
}

// ListPending returns pending requests, optionally restricted to one
// requester, oldest first so the review queue is FIFO.
func (r *CorrectionRepository) ListPending(ctx context.Context, requesterID string) ([]*Correction, error) {
	corrections := []*Correction{}

	query := `SELECT ` + correctionColumns + `
		FROM attendance_correction_requests
		WHERE status = $1`
	args := []any{CorrectionPending}
	if requesterID != "" {
		query += ` AND requested_by = $2`
		args = append(args, requesterID)
	}
	query += ` ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &corrections, query, args...); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return corrections, nil
}

// Approve applies the requested times to the log and marks the request
// approved in a single transaction. The request must still be pending;
// a concurrent review loses with a conflict.
func (r *CorrectionRepository) Approve(ctx context.Context, c *Correction, reviewerID string, reviewNotes string, reviewedAt time.Time) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE attendance_correction_requests
			SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5
			WHERE id = $1 AND status = $6
		`, c.ID, CorrectionApproved, reviewerID, reviewedAt, nullString(reviewNotes), CorrectionPending)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.Conflict("correction request already reviewed")
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE attendance_logs
			SET time_in = $2, time_out = $3, edited_by = $4, edited_at = $5, edit_reason = $6
			WHERE id = $1
		`, c.AttendanceLogID, c.RequestedTimeIn, c.RequestedTimeOut, reviewerID, reviewedAt, c.Reason)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("attendance log")
		}

		return nil
	})
}

// Reject marks a pending request rejected without touching the log.
func (r *CorrectionRepository) Reject(ctx context.Context, id, reviewerID, reviewNotes string, reviewedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE attendance_correction_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5
		WHERE id = $1 AND status = $6
	`, id, CorrectionRejected, reviewerID, reviewedAt, nullString(reviewNotes), CorrectionPending)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Conflict("correction request already reviewed")
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
