package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"regexp"
	"time"

	"github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	kiosksvc "github.com/pastrypal/pastrypal-backend/internal/kiosk/service"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// LogStore is the persistence surface for attendance logs.
type LogStore interface {
	Create(ctx context.Context, log *repository.Log) error
	GetByID(ctx context.Context, id string) (*repository.Log, error)
	GetOpenShift(ctx context.Context, employeeID string) (*repository.Log, error)
	CloseShift(ctx context.Context, id string, timeOut time.Time, deviceInfo, timeOutPhoto sql.NullString) error
	List(ctx context.Context, filter *repository.LogFilter) ([]*repository.LogWithEmployee, int, error)
	Update(ctx context.Context, log *repository.Log) error
	Delete(ctx context.Context, id string) error
	GetPhoto(ctx context.Context, id, kind string) (string, error)
}

// EmployeeStore resolves employees for clock flows.
type EmployeeStore interface {
	GetByID(ctx context.Context, id string) (*staffrepo.Employee, error)
	GetByCode(ctx context.Context, code string) (*staffrepo.Employee, error)
}

// PasskeyChecker validates kiosk passkeys with lockout.
type PasskeyChecker interface {
	Check(ctx context.Context, employeeID, passkeyHash, passkey string) (*kiosksvc.CheckResult, error)
}

// QRVerifier validates time-window QR signatures.
type QRVerifier interface {
	Verify(employeeID string, slot int64, signature string) bool
}

// ClockEventPublisher publishes clock events.
type ClockEventPublisher interface {
	TimeIn(ctx context.Context, logID, employeeID, employeeCode string, timeIn time.Time, source string)
	TimeOut(ctx context.Context, logID, employeeID, employeeCode string, timeIn, timeOut time.Time, source string)
}

// Auditor records administrative actions.
type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, metadata any)
}

// AttendanceService handles kiosk clock flows and attendance management
type AttendanceService struct {
	logs      LogStore
	employees EmployeeStore
	passkeys  PasskeyChecker
	qr        QRVerifier
	events    ClockEventPublisher
	audit     Auditor
	logger    *logger.Logger
	now       func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(logs LogStore, employees EmployeeStore, passkeys PasskeyChecker, qr QRVerifier, events ClockEventPublisher, auditor Auditor, log *logger.Logger) *AttendanceService {
	return &AttendanceService{
		logs:      logs,
		employees: employees,
		passkeys:  passkeys,
		qr:        qr,
		events:    events,
		audit:     auditor,
		logger:    log,
		now:       time.Now,
	}
}

// TimeInRequest starts a shift from the kiosk
type TimeInRequest struct {
	EmployeeCode string `json:"employee_code" validate:"required"`
	Passkey      string `json:"passkey" validate:"required,passkey"`
	Photo        string `json:"photo" validate:"omitempty"`
	DeviceInfo   string `json:"device_info" validate:"omitempty,max=500"`
}

// TimeOutRequest closes a shift from the kiosk. The QR fields come from
// the scanned code and must match the current time window.
type TimeOutRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Slot       int64  `json:"slot" validate:"required"`
	Signature  string `json:"signature" validate:"required,qr_signature"`
	Passkey    string `json:"passkey" validate:"required,passkey"`
	Photo      string `json:"photo" validate:"omitempty"`
	DeviceInfo string `json:"device_info" validate:"omitempty,max=500"`
}

// VerifyPasskeyRequest checks a passkey behind a valid QR code
type VerifyPasskeyRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Slot       int64  `json:"slot" validate:"required"`
	Signature  string `json:"signature" validate:"required,qr_signature"`
	Passkey    string `json:"passkey" validate:"required,passkey"`
}

// activeEmployeeByCode resolves an employee code to an active employee.
// Inactive and unknown codes return the same not-found so the kiosk cannot
// probe which codes exist.
func (s *AttendanceService) activeEmployeeByCode(ctx context.Context, code string) (*staffrepo.Employee, error) {
	emp, err := s.employees.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("employee")
		}
		return nil, err
	}
	if emp.Status != staffrepo.StatusActive {
		return nil, errors.NotFound("employee")
	}
	return emp, nil
}

// checkPasskey runs the lockout-guarded passkey check and converts failures
// into the uniform unauthorized response.
func (s *AttendanceService) checkPasskey(ctx context.Context, emp *staffrepo.Employee, passkey string) error {
	result, err := s.passkeys.Check(ctx, emp.ID, emp.PasskeyHash.String, passkey)
	if err != nil {
		return err
	}
	if result.OK {
		return nil
	}
	if result.LockedUntil != nil {
		return errors.Locked(*result.LockedUntil)
	}
	return errors.Unauthorized("invalid passkey or temporarily locked")
}

// TimeIn starts a shift. The storage layer rejects a second open shift for
// the same employee, so two concurrent time-ins cannot both succeed.
func (s *AttendanceService) TimeIn(ctx context.Context, req *TimeInRequest) (*repository.Log, error) {
	emp, err := s.activeEmployeeByCode(ctx, req.EmployeeCode)
	if err != nil {
		return nil, err
	}

	if err := s.checkPasskey(ctx, emp, req.Passkey); err != nil {
		return nil, err
	}

	if _, err := s.logs.GetOpenShift(ctx, emp.ID); err == nil {
		return nil, errors.Conflict("open shift exists, please time out first")
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	log := &repository.Log{
		EmployeeID:  emp.ID,
		TimeIn:      s.now().UTC(),
		Source:      "QR",
		DeviceInfo:  nullString(req.DeviceInfo),
		TimeInPhoto: nullString(req.Photo),
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("attendance_log_id", log.ID).
		Msg("employee timed in")
	s.events.TimeIn(ctx, log.ID, emp.ID, emp.EmployeeCode, log.TimeIn, log.Source)

	return log, nil
}

// TimeOut closes the employee's open shift. The scanned QR signature must
// still be in its validity window.
func (s *AttendanceService) TimeOut(ctx context.Context, req *TimeOutRequest) (*repository.Log, error) {
	if !s.qr.Verify(req.EmployeeID, req.Slot, req.Signature) {
		return nil, errors.Unauthorized("QR code expired or invalid")
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp.Status != staffrepo.StatusActive {
		return nil, errors.NotFound("employee")
	}

	if err := s.checkPasskey(ctx, emp, req.Passkey); err != nil {
		return nil, err
	}

	open, err := s.logs.GetOpenShift(ctx, emp.ID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Conflict("no open shift to time out")
		}
		return nil, err
	}

	timeOut := s.now().UTC()
	if err := s.logs.CloseShift(ctx, open.ID, timeOut, nullString(req.DeviceInfo), nullString(req.Photo)); err != nil {
		return nil, err
	}
	open.TimeOut = &timeOut

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("attendance_log_id", open.ID).
		Msg("employee timed out")
	s.events.TimeOut(ctx, open.ID, emp.ID, emp.EmployeeCode, open.TimeIn, timeOut, open.Source)

	return open, nil
}

// VerifyPasskey checks a passkey behind a valid QR code without touching
// any shift. Used by the kiosk to gate its confirmation screen.
func (s *AttendanceService) VerifyPasskey(ctx context.Context, req *VerifyPasskeyRequest) error {
	if !s.qr.Verify(req.EmployeeID, req.Slot, req.Signature) {
		return errors.Unauthorized("QR code expired or invalid")
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return err
	}
	if emp.Status != staffrepo.StatusActive {
		return errors.NotFound("employee")
	}

	return s.checkPasskey(ctx, emp, req.Passkey)
}

// ListLogs returns attendance logs matching the filter
func (s *AttendanceService) ListLogs(ctx context.Context, filter *repository.LogFilter) ([]*repository.LogWithEmployee, int, error) {
	return s.logs.List(ctx, filter)
}

// EditRequest proposes or applies new times for an attendance log
type EditRequest struct {
	TimeIn  time.Time  `json:"time_in" validate:"required"`
	TimeOut *time.Time `json:"time_out"`
	Reason  string     `json:"reason" validate:"required,min=3,max=500"`
}

// EditOutcome reports whether an edit was applied directly or queued for
// review.
type EditOutcome struct {
	Applied    bool                   `json:"applied"`
	Log        *repository.Log        `json:"log,omitempty"`
	Correction *repository.Correction `json:"correction,omitempty"`
}

// Edit dispatches an attendance edit by the caller's role. Admins edit
// directly; supervisors get a pending correction request instead.
func (s *AttendanceService) Edit(ctx context.Context, corrections *CorrectionService, logID string, req *EditRequest) (*EditOutcome, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	if req.TimeOut != nil && !req.TimeOut.After(req.TimeIn) {
		return nil, errors.Validation(map[string]string{
			"time_out": "must be after time_in",
		})
	}

	log, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	if a.Role.CanEditAttendanceDirectly() {
		now := s.now().UTC()
		log.TimeIn = req.TimeIn
		log.TimeOut = req.TimeOut
		log.EditedBy = nullString(a.ID)
		log.EditedAt = &now
		log.EditReason = nullString(req.Reason)

		if err := s.logs.Update(ctx, log); err != nil {
			return nil, err
		}

		s.audit.Record(ctx, a.ID, "ATTENDANCE_EDIT", "attendance_log", log.ID, map[string]any{
			"time_in":  req.TimeIn,
			"time_out": req.TimeOut,
			"reason":   req.Reason,
		})
		return &EditOutcome{Applied: true, Log: log}, nil
	}

	correction, err := corrections.Propose(ctx, a, log, req)
	if err != nil {
		return nil, err
	}
	return &EditOutcome{Applied: false, Correction: correction}, nil
}

// Delete removes an attendance log
func (s *AttendanceService) Delete(ctx context.Context, logID string) error {
	a := actor.FromContext(ctx)
	if a == nil {
		return errors.Unauthorized("authentication required")
	}

	if err := s.logs.Delete(ctx, logID); err != nil {
		return err
	}

	s.audit.Record(ctx, a.ID, "ATTENDANCE_DELETE", "attendance_log", logID, nil)
	return nil
}

// Photo holds decoded photo bytes for serving
type Photo struct {
	ContentType string
	Data        []byte
}

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// GetPhoto returns the decoded clock photo for a log.
func (s *AttendanceService) GetPhoto(ctx context.Context, logID, kind string) (*Photo, error) {
	if kind != "timeIn" && kind != "timeOut" {
		return nil, errors.BadRequest("kind must be timeIn or timeOut")
	}

	stored, err := s.logs.GetPhoto(ctx, logID, kind)
	if err != nil {
		return nil, err
	}

	matches := dataURLPattern.FindStringSubmatch(stored)
	if matches == nil {
		return nil, errors.BadRequest("stored photo is not a valid data URL")
	}

	data, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return nil, errors.BadRequest("stored photo is not valid base64")
	}

	return &Photo{ContentType: matches[1], Data: data}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
