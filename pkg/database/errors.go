package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Undefined table (42P01): the feature's storage has not been provisioned.
	// Degrade to a feature-unavailable response instead of a 500.
	case "42P01":
		return errors.Unavailable("feature is not available yet, database migration is still pending")

	default:
		return nil
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to constraints whose name contains the given fragment.
func IsUniqueViolation(err error, constraintFragment string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	if constraintFragment == "" {
		return true
	}
	return strings.Contains(pqErr.Constraint, constraintFragment)
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "hourly_rate"):
		return errors.Validation(map[string]string{
			"hourly_rate": "must be greater than 0 and at most 100000",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: ACTIVE, INACTIVE",
		})

	case strings.Contains(constraint, "month_valid"):
		return errors.Validation(map[string]string{
			"month": "must be between 1 and 12",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "open_shift"):
		return "open shift exists, please time out first"
	case strings.Contains(constraint, "employee_code"):
		return "an employee with this employee code already exists"
	case strings.Contains(constraint, "roles_name"):
		return "a role with this name already exists"
	case strings.Contains(constraint, "users_email"):
		return "a user with this email already exists"
	case strings.Contains(constraint, "payroll_runs_month_year_status"):
		return "a payroll run already exists for this period"
	case strings.Contains(constraint, "payroll_items_run_employee"):
		return "a payroll item already exists for this employee in this run"
	default:
		return "a record with these values already exists"
	}
}
