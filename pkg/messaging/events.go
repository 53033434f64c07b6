package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Staff events
	EventEmployeeCreated = "staff.employee.created"
	EventEmployeeUpdated = "staff.employee.updated"
	EventEmployeeDeleted = "staff.employee.deleted"

	// Attendance events
	EventAttendanceTimeIn  = "attendance.time_in"
	EventAttendanceTimeOut = "attendance.time_out"

	// Correction events
	EventCorrectionRequested = "attendance.correction.requested"
	EventCorrectionApproved  = "attendance.correction.approved"
	EventCorrectionRejected  = "attendance.correction.rejected"

	// Payroll events
	EventPayrollComputed  = "payroll.run.computed"
	EventPayrollFinalized = "payroll.run.finalized"
)

// Exchange names
const (
	ExchangeStaffEvents      = "staff.events"
	ExchangeAttendanceEvents = "attendance.events"
	ExchangePayrollEvents    = "payroll.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EmployeeCreatedEvent is published when an employee is created
type EmployeeCreatedEvent struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
}

// EmployeeUpdatedEvent is published when an employee is updated
type EmployeeUpdatedEvent struct {
	EmployeeID string         `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is deleted
type EmployeeDeletedEvent struct {
	EmployeeID string `json:"employee_id"`
}

// AttendanceClockEvent is published on time-in and time-out
type AttendanceClockEvent struct {
	AttendanceLogID string     `json:"attendance_log_id"`
	EmployeeID      string     `json:"employee_id"`
	EmployeeCode    string     `json:"employee_code"`
	TimeIn          time.Time  `json:"time_in"`
	TimeOut         *time.Time `json:"time_out,omitempty"`
	Source          string     `json:"source"`
}

// CorrectionEvent is published on correction request lifecycle transitions
type CorrectionEvent struct {
	RequestID       string `json:"request_id"`
	AttendanceLogID string `json:"attendance_log_id"`
	RequestedBy     string `json:"requested_by"`
	Status          string `json:"status"`
	ReviewedBy      string `json:"reviewed_by,omitempty"`
}

// PayrollRunEvent is published when a run is computed or finalized
type PayrollRunEvent struct {
	RunID     string `json:"run_id"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	Status    string `json:"status"`
	ItemCount int    `json:"item_count,omitempty"`
}
