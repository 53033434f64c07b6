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

// Log is one attendance record. An open shift has a null time_out.
type Log struct {
	ID           string         `db:"id" json:"id"`
	EmployeeID   string         `db:"employee_id" json:"employee_id"`
	TimeIn       time.Time      `db:"time_in" json:"time_in"`
	TimeOut      *time.Time     `db:"time_out" json:"time_out,omitempty"`
	Source       string         `db:"source" json:"source"`
	DeviceInfo   sql.NullString `db:"device_info" json:"device_info,omitempty"`
	TimeInPhoto  sql.NullString `db:"time_in_photo" json:"-"`
	TimeOutPhoto sql.NullString `db:"time_out_photo" json:"-"`
	EditedBy     sql.NullString `db:"edited_by" json:"edited_by,omitempty"`
	EditedAt     *time.Time     `db:"edited_at" json:"edited_at,omitempty"`
	EditReason   sql.NullString `db:"edit_reason" json:"edit_reason,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// LogWithEmployee joins a log with the employee it belongs to. Logs for
// deleted employees keep a sentinel name so history stays renderable.
type LogWithEmployee struct {
	Log
	EmployeeCode string `db:"employee_code" json:"employee_code"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	HasTimeIn    bool   `db:"has_time_in_photo" json:"has_time_in_photo"`
	HasTimeOut   bool   `db:"has_time_out_photo" json:"has_time_out_photo"`
}

// LogFilter narrows attendance listings
type LogFilter struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
	OpenOnly   bool
	Limit      int
	Offset     int
}

const logColumns = `id, employee_id, time_in, time_out, source, device_info,
	time_in_photo, time_out_photo, edited_by, edited_at, edit_reason, created_at`

// LogRepository handles attendance log persistence
type LogRepository struct {
	db *database.DB
}

// NewLogRepository creates a new attendance log repository
func NewLogRepository(db *database.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create inserts a new open attendance log. A partial unique index rejects
// a second open shift for the same employee; the violation surfaces as a
// conflict telling the employee to time out first.
func (r *LogRepository) Create(ctx context.Context, log *Log) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Source == "" {
		log.Source = "QR"
	}

	query := `
		INSERT INTO attendance_logs (id, employee_id, time_in, source, device_info, time_in_photo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		log.ID, log.EmployeeID, log.TimeIn, log.Source, log.DeviceInfo, log.TimeInPhoto,
	).Scan(&log.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an attendance log by ID
func (r *LogRepository) GetByID(ctx context.Context, id string) (*Log, error) {
	var log Log

	query := fmt.Sprintf(`SELECT %s FROM attendance_logs WHERE id = $1`, logColumns)
	err := r.db.GetContext(ctx, &log, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("attendance log")
	}
	if err != nil {
		return nil, err
	}

	return &log, nil
}

// GetOpenShift returns the employee's open shift, most recent first.
func (r *LogRepository) GetOpenShift(ctx context.Context, employeeID string) (*Log, error) {
	var log Log

	query := fmt.Sprintf(`
		SELECT %s FROM attendance_logs
		WHERE employee_id = $1 AND time_out IS NULL
		ORDER BY time_in DESC
		LIMIT 1
	`, logColumns)
	err := r.db.GetContext(ctx, &log, query, employeeID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("open shift")
	}
	if err != nil {
		return nil, err
	}

	return &log, nil
}

// CloseShift sets the time out on an open shift.
func (r *LogRepository) CloseShift(ctx context.Context, id string, timeOut time.Time, deviceInfo, timeOutPhoto sql.NullString) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE attendance_logs
		SET time_out = $2, device_info = COALESCE($3, device_info), time_out_photo = $4
		WHERE id = $1 AND time_out IS NULL
	`, id, timeOut, deviceInfo, timeOutPhoto)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Conflict("no open shift to time out")
	}
	return nil
}

// List returns logs matching the filter joined with employee identity,
// newest first.
func (r *LogRepository) List(ctx context.Context, filter *LogFilter) ([]*LogWithEmployee, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argNum := 1

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("l.employee_id = $%d", argNum))
		args = append(args, filter.EmployeeID)
		argNum++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("l.time_in >= $%d", argNum))
		args = append(args, *filter.From)
		argNum++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("l.time_in < $%d", argNum))
		args = append(args, *filter.To)
		argNum++
	}
	if filter.OpenOnly {
		conditions = append(conditions, "l.time_out IS NULL")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM attendance_logs l WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.employee_id, l.time_in, l.time_out, l.source, l.device_info,
		       NULL AS time_in_photo, NULL AS time_out_photo,
		       l.edited_by, l.edited_at, l.edit_reason, l.created_at,
		       COALESCE(e.employee_code, 'DELETED') AS employee_code,
		       COALESCE(e.first_name, 'Deleted') AS first_name,
		       COALESCE(e.last_name, 'Employee') AS last_name,
		       (l.time_in_photo IS NOT NULL) AS has_time_in_photo,
		       (l.time_out_photo IS NOT NULL) AS has_time_out_photo
		FROM attendance_logs l
		LEFT JOIN employees e ON e.id = l.employee_id
		WHERE %s
		ORDER BY l.time_in DESC
		LIMIT $%d OFFSET $%d
	`, where, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	logs := []*LogWithEmployee{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListClosedInRange returns closed shifts whose time in falls in
// [from, to), optionally for a single employee. Used by payroll.
func (r *LogRepository) ListClosedInRange(ctx context.Context, from, to time.Time, employeeID string) ([]*Log, error) {
	logs := []*Log{}

	query := fmt.Sprintf(`
		SELECT %s FROM attendance_logs
		WHERE time_out IS NOT NULL AND time_in >= $1 AND time_in < $2
	`, logColumns)
	args := []any{from, to}
	if employeeID != "" {
		query += ` AND employee_id = $3`
		args = append(args, employeeID)
	}
	query += ` ORDER BY time_in ASC`

	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, err
	}

	return logs, nil
}

// Update applies an administrative edit to a log's times.
func (r *LogRepository) Update(ctx context.Context, log *Log) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE attendance_logs
		SET time_in = $2, time_out = $3, edited_by = $4, edited_at = $5, edit_reason = $6
		WHERE id = $1
	`, log.ID, log.TimeIn, log.TimeOut, log.EditedBy, log.EditedAt, log.EditReason)
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
		return errors.NotFound("attendance log")
	}
	return nil
}

// Delete removes a log. Correction requests cascade.
func (r *LogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attendance_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("attendance log")
	}
	return nil
}

// GetPhoto returns the stored photo data URL for a log, by kind.
func (r *LogRepository) GetPhoto(ctx context.Context, id, kind string) (string, error) {
	column := "time_in_photo"
	if kind == "timeOut" {
		column = "time_out_photo"
	}

	var photo sql.NullString
	query := fmt.Sprintf(`SELECT %s FROM attendance_logs WHERE id = $1`, column)
	err := r.db.GetContext(ctx, &photo, query, id)
	if err == sql.ErrNoRows {
		return "", errors.NotFound("attendance log")
	}
	if err != nil {
		return "", err
	}
	if !photo.Valid || photo.String == "" {
		return "", errors.NotFound("photo")
	}

	return photo.String, nil
}
