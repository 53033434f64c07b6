package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

// Employee statuses
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Employee represents a staff member
type Employee struct {
	ID            string         `db:"id" json:"id"`
	EmployeeCode  string         `db:"employee_code" json:"employee_code"`
	FirstName     string         `db:"first_name" json:"first_name"`
	LastName      string         `db:"last_name" json:"last_name"`
	Email         sql.NullString `db:"email" json:"email,omitempty"`
	RoleID        sql.NullString `db:"role_id" json:"role_id,omitempty"`
	ContactNumber sql.NullString `db:"contact_number" json:"contact_number,omitempty"`
	HourlyRate    float64        `db:"hourly_rate" json:"hourly_rate"`
	Status        string         `db:"status" json:"status"`
	PasskeyHash   sql.NullString `db:"passkey_hash" json:"-"`
	UserID        sql.NullString `db:"user_id" json:"user_id,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HasPasskey reports whether the employee has a kiosk passkey set.
func (e *Employee) HasPasskey() bool {
	return e.PasskeyHash.Valid && e.PasskeyHash.String != ""
}

// EmployeeFilter narrows employee listings
type EmployeeFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// NextEmployeeCode derives the next sequential code for the given year,
// EMP-<year>-<6 digit sequence>. Concurrent creates may race here; Create
// retries on the resulting unique violation.
func (r *EmployeeRepository) NextEmployeeCode(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("EMP-%d-", year)

	var latest sql.NullString
	query := `
		SELECT employee_code FROM employees
		WHERE employee_code LIKE $1
		ORDER BY employee_code DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &latest, query, prefix+"%")
	if err != nil && err != sql.ErrNoRows {
		return "", err
	}

	seq := 1
	if latest.Valid {
		var parsed int
		if _, err := fmt.Sscanf(strings.TrimPrefix(latest.String, prefix), "%d", &parsed); err == nil {
			seq = parsed + 1
		}
	}

	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

// Create inserts a new employee, generating the employee code when absent.
// Retries a few times if a concurrent create claims the same code.
func (r *EmployeeRepository) Create(ctx context.Context, emp *Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	if emp.Status == "" {
		emp.Status = StatusActive
	}

	generate := emp.EmployeeCode == ""
	year := time.Now().UTC().Year()

	for attempt := 0; attempt < 5; attempt++ {
		if generate {
			code, err := r.NextEmployeeCode(ctx, year)
			if err != nil {
				return err
			}
			emp.EmployeeCode = code
		}

		query := `
			INSERT INTO employees (id, employee_code, first_name, last_name, email, role_id, contact_number, hourly_rate, status, passkey_hash, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowxContext(ctx, query,
			emp.ID, emp.EmployeeCode, emp.FirstName, emp.LastName, emp.Email,
			emp.RoleID, emp.ContactNumber, emp.HourlyRate, emp.Status,
			emp.PasskeyHash, emp.UserID,
		).Scan(&emp.CreatedAt, &emp.UpdatedAt)
		if err == nil {
			return nil
		}

		if generate && database.IsUniqueViolation(err, "employee_code") {
			continue
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return errors.Conflict("could not allocate a unique employee code, please retry")
}

// GetByID gets an employee by internal ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee

	query := `
		SELECT id, employee_code, first_name, last_name, email, role_id, contact_number,
		       hourly_rate, status, passkey_hash, user_id, created_at, updated_at
		FROM employees WHERE id = $1
	`
	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// GetByCode gets an employee by their business employee code
func (r *EmployeeRepository) GetByCode(ctx context.Context, code string) (*Employee, error) {
	var emp Employee

	query := `
		SELECT id, employee_code, first_name, last_name, email, role_id, contact_number,
		       hourly_rate, status, passkey_hash, user_id, created_at, updated_at
		FROM employees WHERE employee_code = $1
	`
	err := r.db.GetContext(ctx, &emp, query, code)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// ListActive returns every active employee. Used by payroll computation.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*Employee, error) {
	employees := []*Employee{}

	query := `
		SELECT id, employee_code, first_name, last_name, email, role_id, contact_number,
		       hourly_rate, status, passkey_hash, user_id, created_at, updated_at
		FROM employees
		WHERE status = $1
		ORDER BY employee_code ASC
	`
	if err := r.db.SelectContext(ctx, &employees, query, StatusActive); err != nil {
		return nil, err
	}

	return employees, nil
}

// List returns employees matching the filter, newest first
func (r *EmployeeRepository) List(ctx context.Context, filter *EmployeeFilter) ([]*Employee, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argNum := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR employee_code ILIKE $%d)",
			argNum, argNum, argNum,
		))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM employees WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, employee_code, first_name, last_name, email, role_id, contact_number,
		       hourly_rate, status, passkey_hash, user_id, created_at, updated_at
		FROM employees
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	employees := []*Employee{}
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Update persists mutable employee fields
func (r *EmployeeRepository) Update(ctx context.Context, emp *Employee) error {
	query := `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, role_id = $5, contact_number = $6,
		    hourly_rate = $7, status = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.RoleID,
		emp.ContactNumber, emp.HourlyRate, emp.Status,
	).Scan(&emp.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("employee")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// UpdatePasskeyHash replaces the employee's kiosk passkey hash
func (r *EmployeeRepository) UpdatePasskeyHash(ctx context.Context, id, hash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE employees SET passkey_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("employee")
	}
	return nil
}

// Delete removes an employee
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("employee")
	}
	return nil
}
