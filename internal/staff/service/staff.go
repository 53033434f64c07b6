package service

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

const passkeyHashCost = 10

// EmployeeStore is the persistence surface the staff service needs.
type EmployeeStore interface {
	Create(ctx context.Context, emp *repository.Employee) error
	GetByID(ctx context.Context, id string) (*repository.Employee, error)
	GetByCode(ctx context.Context, code string) (*repository.Employee, error)
	List(ctx context.Context, filter *repository.EmployeeFilter) ([]*repository.Employee, int, error)
	Update(ctx context.Context, emp *repository.Employee) error
	UpdatePasskeyHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// RoleStore is the persistence surface for job roles.
type RoleStore interface {
	Create(ctx context.Context, role *repository.Role) error
	GetByID(ctx context.Context, id string) (*repository.Role, error)
	List(ctx context.Context) ([]*repository.Role, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher publishes staff lifecycle events.
type EventPublisher interface {
	EmployeeCreated(ctx context.Context, employeeID, employeeCode, name string)
	EmployeeUpdated(ctx context.Context, employeeID string, fields map[string]any)
	EmployeeDeleted(ctx context.Context, employeeID string)
}

// StaffService handles employee and role management
type StaffService struct {
	employees EmployeeStore
	roles     RoleStore
	events    EventPublisher
	logger    *logger.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(employees EmployeeStore, roles RoleStore, events EventPublisher, log *logger.Logger) *StaffService {
	return &StaffService{
		employees: employees,
		roles:     roles,
		events:    events,
		logger:    log,
	}
}

// CreateEmployeeRequest represents an employee creation request
type CreateEmployeeRequest struct {
	FirstName     string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string  `json:"last_name" validate:"required,min=1,max=100"`
	Email         string  `json:"email" validate:"omitempty,email"`
	RoleID        string  `json:"role_id" validate:"omitempty,uuid"`
	ContactNumber string  `json:"contact_number" validate:"omitempty,contact_number"`
	HourlyRate    float64 `json:"hourly_rate" validate:"required,gt=0,lte=100000"`
	Passkey       string  `json:"passkey" validate:"required,strong_passkey"`
}

// UpdateEmployeeRequest represents a partial employee update
type UpdateEmployeeRequest struct {
	FirstName     *string  `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName      *string  `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	RoleID        *string  `json:"role_id" validate:"omitempty,uuid"`
	ContactNumber *string  `json:"contact_number" validate:"omitempty,contact_number"`
	HourlyRate    *float64 `json:"hourly_rate" validate:"omitempty,gt=0,lte=100000"`
	Status        *string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// SetPasskeyRequest replaces an employee's kiosk passkey
type SetPasskeyRequest struct {
	Passkey string `json:"passkey" validate:"required,strong_passkey"`
}

// CreateEmployee creates a new employee with a generated employee code
func (s *StaffService) CreateEmployee(ctx context.Context, req *CreateEmployeeRequest) (*repository.Employee, error) {
	if req.RoleID != "" {
		if _, err := s.roles.GetByID(ctx, req.RoleID); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return nil, errors.BadRequest("role does not exist")
			}
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Passkey), passkeyHashCost)
	if err != nil {
		return nil, errors.Internal("failed to hash passkey")
	}

	emp := &repository.Employee{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         nullString(req.Email),
		HourlyRate:    req.HourlyRate,
		Status:        repository.StatusActive,
		PasskeyHash:   sql.NullString{String: string(hash), Valid: true},
		RoleID:        nullString(req.RoleID),
		ContactNumber: nullString(req.ContactNumber),
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("employee_code", emp.EmployeeCode).
		Msg("employee created")
	s.events.EmployeeCreated(ctx, emp.ID, emp.EmployeeCode,
		fmt.Sprintf("%s %s", emp.FirstName, emp.LastName))

	return emp, nil
}

// GetEmployee returns an employee by ID
func (s *StaffService) GetEmployee(ctx context.Context, id string) (*repository.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// ListEmployees returns employees matching the filter
func (s *StaffService) ListEmployees(ctx context.Context, filter *repository.EmployeeFilter) ([]*repository.Employee, int, error) {
	return s.employees.List(ctx, filter)
}

// UpdateEmployee applies a partial update to an employee
func (s *StaffService) UpdateEmployee(ctx context.Context, id string, req *UpdateEmployeeRequest) (*repository.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if req.FirstName != nil {
		emp.FirstName = *req.FirstName
		changed["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		emp.LastName = *req.LastName
		changed["last_name"] = *req.LastName
	}
	if req.Email != nil {
		emp.Email = nullString(*req.Email)
		changed["email"] = *req.Email
	}
	if req.RoleID != nil {
		if *req.RoleID != "" {
			if _, err := s.roles.GetByID(ctx, *req.RoleID); err != nil {
				if errors.Is(err, errors.ErrNotFound) {
					return nil, errors.BadRequest("role does not exist")
				}
				return nil, err
			}
		}
		emp.RoleID = nullString(*req.RoleID)
		changed["role_id"] = *req.RoleID
	}
	if req.ContactNumber != nil {
		emp.ContactNumber = nullString(*req.ContactNumber)
		changed["contact_number"] = *req.ContactNumber
	}
	if req.HourlyRate != nil {
		emp.HourlyRate = *req.HourlyRate
		changed["hourly_rate"] = *req.HourlyRate
	}
	if req.Status != nil {
		emp.Status = *req.Status
		changed["status"] = *req.Status
	}

	if len(changed) == 0 {
		return emp, nil
	}

	if err := s.employees.Update(ctx, emp); err != nil {
		return nil, err
	}

	s.logger.Info().Str("employee_id", emp.ID).Msg("employee updated")
	s.events.EmployeeUpdated(ctx, emp.ID, changed)

	return emp, nil
}

// SetPasskey replaces an employee's kiosk passkey
func (s *StaffService) SetPasskey(ctx context.Context, id string, req *SetPasskeyRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Passkey), passkeyHashCost)
	if err != nil {
		return errors.Internal("failed to hash passkey")
	}

	if err := s.employees.UpdatePasskeyHash(ctx, id, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", id).Msg("employee passkey changed")
	return nil
}

// DeleteEmployee removes an employee. Attendance and payroll rows survive
// with a dangling employee reference; listings render them as deleted.
func (s *StaffService) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", id).Msg("employee deleted")
	s.events.EmployeeDeleted(ctx, id)
	return nil
}

// CreateRoleRequest represents a role creation request
type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateRole creates a new job role
func (s *StaffService) CreateRole(ctx context.Context, req *CreateRoleRequest) (*repository.Role, error) {
	role := &repository.Role{Name: req.Name}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// ListRoles returns all job roles
func (s *StaffService) ListRoles(ctx context.Context) ([]*repository.Role, error) {
	return s.roles.List(ctx)
}

// DeleteRole removes a job role
func (s *StaffService) DeleteRole(ctx context.Context, id string) error {
	return s.roles.Delete(ctx, id)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
