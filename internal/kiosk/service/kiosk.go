package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	attendancerepo "github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// EmployeeLookup resolves employees for kiosk flows.
type EmployeeLookup interface {
	GetByID(ctx context.Context, id string) (*staffrepo.Employee, error)
	GetByCode(ctx context.Context, code string) (*staffrepo.Employee, error)
}

// OpenShiftLookup finds an employee's open shift, if any.
type OpenShiftLookup interface {
	GetOpenShift(ctx context.Context, employeeID string) (*attendancerepo.Log, error)
}

// KioskService serves the kiosk surface: QR issuance and public status.
type KioskService struct {
	signer    *TimeWindowSigner
	employees EmployeeLookup
	shifts    OpenShiftLookup
	baseURL   string
	logger    *logger.Logger
}

// NewKioskService creates a new kiosk service
func NewKioskService(signer *TimeWindowSigner, employees EmployeeLookup, shifts OpenShiftLookup, baseURL string, log *logger.Logger) *KioskService {
	return &KioskService{
		signer:    signer,
		employees: employees,
		shifts:    shifts,
		baseURL:   baseURL,
		logger:    log,
	}
}

// QRCodeResponse carries a signed kiosk QR payload
type QRCodeResponse struct {
	EmployeeID string    `json:"employee_id"`
	Slot       int64     `json:"slot"`
	Signature  string    `json:"signature"`
	ExpiresAt  time.Time `json:"expires_at"`
	QRValue    string    `json:"qr_value"`
}

// QRCode issues a signed QR payload for the employee's current time window.
func (s *KioskService) QRCode(ctx context.Context, employeeID string) (*QRCodeResponse, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.Status != staffrepo.StatusActive {
		return nil, errors.NotFound("employee")
	}

	slot := s.signer.CurrentSlot()
	sig := s.signer.Sign(emp.ID, slot)

	qr := fmt.Sprintf("%s/kiosk?employee_id=%s&slot=%d&sig=%s",
		s.baseURL, url.QueryEscape(emp.ID), slot, sig)

	return &QRCodeResponse{
		EmployeeID: emp.ID,
		Slot:       slot,
		Signature:  sig,
		ExpiresAt:  s.signer.ExpiresAt(slot),
		QRValue:    qr,
	}, nil
}

// StatusResponse is the public kiosk status for an employee
type StatusResponse struct {
	Employee        *EmployeeSummary `json:"employee"`
	IsTimedIn       bool             `json:"is_timed_in"`
	OpenShiftTimeIn *time.Time       `json:"open_shift_time_in,omitempty"`
}

// EmployeeSummary is the subset of employee fields the kiosk may show
type EmployeeSummary struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// Status returns whether the employee identified by code has an open shift.
// Inactive employees are indistinguishable from unknown codes.
func (s *KioskService) Status(ctx context.Context, employeeCode string) (*StatusResponse, error) {
	emp, err := s.employees.GetByCode(ctx, employeeCode)
	if err != nil {
		return nil, err
	}
	if emp.Status != staffrepo.StatusActive {
		return nil, errors.NotFound("employee")
	}

	resp := &StatusResponse{
		Employee: &EmployeeSummary{
			ID:           emp.ID,
			EmployeeCode: emp.EmployeeCode,
			FirstName:    emp.FirstName,
			LastName:     emp.LastName,
		},
	}

	open, err := s.shifts.GetOpenShift(ctx, emp.ID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return resp, nil
		}
		return nil, err
	}

	resp.IsTimedIn = true
	resp.OpenShiftTimeIn = &open.TimeIn
	return resp, nil
}
