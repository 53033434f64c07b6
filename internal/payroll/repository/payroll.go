package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

// Payroll run statuses
const (
	RunDraft = "DRAFT"
	RunFinal = "FINAL"
)

// Run is one payroll computation for a month
type Run struct {
	ID        string    `db:"id" json:"id"`
	Month     int       `db:"month" json:"month"`
	Year      int       `db:"year" json:"year"`
	Status    string    `db:"status" json:"status"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Item is one employee's pay line in a run
type Item struct {
	ID               string  `db:"id" json:"id"`
	PayrollRunID     string  `db:"payroll_run_id" json:"payroll_run_id"`
	EmployeeID       string  `db:"employee_id" json:"employee_id"`
	TotalShifts      int     `db:"total_shifts" json:"total_shifts"`
	TotalHours       float64 `db:"total_hours" json:"total_hours"`
	BasePay          float64 `db:"base_pay" json:"base_pay"`
	AdjustmentsTotal float64 `db:"adjustments_total" json:"adjustments_total"`
	NetPay           float64 `db:"net_pay" json:"net_pay"`
}

// ItemWithEmployee joins a pay line with the employee it belongs to.
// Items for deleted employees keep a sentinel identity.
type ItemWithEmployee struct {
	Item
	EmployeeCode string `db:"employee_code" json:"employee_code"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
}

// Adjustment is a manual pay delta applied to one employee in a run
type Adjustment struct {
	ID           string    `db:"id" json:"id"`
	PayrollRunID string    `db:"payroll_run_id" json:"payroll_run_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	Amount       float64   `db:"amount" json:"amount"`
	Reason       string    `db:"reason" json:"reason"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PayrollRepository handles payroll persistence
type PayrollRepository struct {
	db *database.DB
}

// NewPayrollRepository creates a new payroll repository
func NewPayrollRepository(db *database.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// GetRunByStatus returns the run for a period in the given status.
func (r *PayrollRepository) GetRunByStatus(ctx context.Context, month, year int, status string) (*Run, error) {
	var run Run

	query := `
		SELECT id, month, year, status, created_by, created_at
		FROM payroll_runs
		WHERE month = $1 AND year = $2 AND status = $3
	`
	err := r.db.GetContext(ctx, &run, query, month, year, status)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payroll run")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &run, nil
}

// GetRunByID returns a run by ID
func (r *PayrollRepository) GetRunByID(ctx context.Context, id string) (*Run, error) {
	var run Run

	query := `SELECT id, month, year, status, created_by, created_at FROM payroll_runs WHERE id = $1`
	err := r.db.GetContext(ctx, &run, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payroll run")
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetLatestRun returns the most recently created run for a period.
func (r *PayrollRepository) GetLatestRun(ctx context.Context, month, year int) (*Run, error) {
	var run Run

	query := `
		SELECT id, month, year, status, created_by, created_at
		FROM payroll_runs
		WHERE month = $1 AND year = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &run, query, month, year)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payroll run")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &run, nil
}

// ListRuns returns all runs, newest period first.
func (r *PayrollRepository) ListRuns(ctx context.Context) ([]*Run, error) {
	runs := []*Run{}

	query := `
		SELECT id, month, year, status, created_by, created_at
		FROM payroll_runs
		ORDER BY year DESC, month DESC, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &runs, query); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return runs, nil
}

// GetOrCreateDraft upserts the draft run for a period.
func (r *PayrollRepository) GetOrCreateDraft(ctx context.Context, month, year int, createdBy string) (*Run, error) {
	var run Run

	query := `
		INSERT INTO payroll_runs (id, month, year, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (month, year, status) DO UPDATE SET month = EXCLUDED.month
		RETURNING id, month, year, status, created_by, created_at
	`
	err := r.db.GetContext(ctx, &run, query, uuid.New().String(), month, year, RunDraft, createdBy)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &run, nil
}

// CountItems returns the number of pay lines in a run.
func (r *PayrollRepository) CountItems(ctx context.Context, runID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM payroll_items WHERE payroll_run_id = $1`, runID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteRun removes a run. Items and adjustments cascade.
func (r *PayrollRepository) DeleteRun(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payroll_runs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("payroll run")
	}
	return nil
}

// UpsertItem inserts or replaces an employee's pay line in a run.
func (r *PayrollRepository) UpsertItem(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payroll_items (id, payroll_run_id, employee_id, total_shifts, total_hours, base_pay, adjustments_total, net_pay)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (payroll_run_id, employee_id) DO UPDATE
		SET total_shifts = EXCLUDED.total_shifts,
		    total_hours = EXCLUDED.total_hours,
		    base_pay = EXCLUDED.base_pay,
		    adjustments_total = EXCLUDED.adjustments_total,
		    net_pay = EXCLUDED.net_pay
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.PayrollRunID, item.EmployeeID, item.TotalShifts,
		item.TotalHours, item.BasePay, item.AdjustmentsTotal, item.NetPay,
	).Scan(&item.ID)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// UpdateItemAdjustments sets the adjustment total and net pay on a pay line.
func (r *PayrollRepository) UpdateItemAdjustments(ctx context.Context, runID, employeeID string, adjustmentsTotal, netPay float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payroll_items
		SET adjustments_total = $3, net_pay = $4
		WHERE payroll_run_id = $1 AND employee_id = $2
	`, runID, employeeID, adjustmentsTotal, netPay)
	return err
}

// ListItems returns a run's pay lines joined with employee identity.
func (r *PayrollRepository) ListItems(ctx context.Context, runID string) ([]*ItemWithEmployee, error) {
	items := []*ItemWithEmployee{}

	query := `
		SELECT i.id, i.payroll_run_id, i.employee_id, i.total_shifts, i.total_hours,
		       i.base_pay, i.adjustments_total, i.net_pay,
		       COALESCE(e.employee_code, 'DELETED') AS employee_code,
		       COALESCE(e.first_name, 'Deleted') AS first_name,
		       COALESCE(e.last_name, 'Employee') AS last_name
		FROM payroll_items i
		LEFT JOIN employees e ON e.id = i.employee_id
		WHERE i.payroll_run_id = $1
	`
	if err := r.db.SelectContext(ctx, &items, query, runID); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return items, nil
}

// CreateAdjustment inserts a manual pay adjustment.
func (r *PayrollRepository) CreateAdjustment(ctx context.Context, adj *Adjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payroll_adjustments (id, payroll_run_id, employee_id, amount, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		adj.ID, adj.PayrollRunID, adj.EmployeeID, adj.Amount, adj.Reason, adj.CreatedBy,
	).Scan(&adj.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// ListAdjustments returns every adjustment recorded against a run.
func (r *PayrollRepository) ListAdjustments(ctx context.Context, runID string) ([]*Adjustment, error) {
	adjustments := []*Adjustment{}

	query := `
		SELECT id, payroll_run_id, employee_id, amount, reason, created_by, created_at
		FROM payroll_adjustments
		WHERE payroll_run_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &adjustments, query, runID); err != nil {
		return nil, err
	}

	return adjustments, nil
}

// Finalize marks a draft run final. A run that is already final conflicts.
func (r *PayrollRepository) Finalize(ctx context.Context, id string) (*Run, error) {
	var run Run

	query := `
		UPDATE payroll_runs
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING id, month, year, status, created_by, created_at
	`
	err := r.db.GetContext(ctx, &run, query, id, RunFinal, RunDraft)
	if err == sql.ErrNoRows {
		if _, getErr := r.GetRunByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.Conflict("payroll run already finalized")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &run, nil
}
