// Package events publishes attendance domain events.
package events

import (
	"context"
	"time"

	"github.com/pastrypal/pastrypal-backend/pkg/logger"
	"github.com/pastrypal/pastrypal-backend/pkg/messaging"
)

// Publisher publishes attendance events. Publish failures are logged and
// never fail the clock operation that triggered them.
type Publisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates an attendance event publisher
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "pastrypal-backend", log)
	if err != nil {
		return nil, err
	}
	return &Publisher{publisher: pub, logger: log.WithComponent("attendance.events")}, nil
}

// TimeIn publishes an attendance.time_in event
func (p *Publisher) TimeIn(ctx context.Context, logID, employeeID, employeeCode string, timeIn time.Time, source string) {
	err := p.publisher.Publish(ctx, messaging.EventAttendanceTimeIn, messaging.AttendanceClockEvent{
		AttendanceLogID: logID,
		EmployeeID:      employeeID,
		EmployeeCode:    employeeCode,
		TimeIn:          timeIn,
		Source:          source,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("attendance_log_id", logID).Msg("failed to publish time in event")
	}
}

// TimeOut publishes an attendance.time_out event
func (p *Publisher) TimeOut(ctx context.Context, logID, employeeID, employeeCode string, timeIn, timeOut time.Time, source string) {
	err := p.publisher.Publish(ctx, messaging.EventAttendanceTimeOut, messaging.AttendanceClockEvent{
		AttendanceLogID: logID,
		EmployeeID:      employeeID,
		EmployeeCode:    employeeCode,
		TimeIn:          timeIn,
		TimeOut:         &timeOut,
		Source:          source,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("attendance_log_id", logID).Msg("failed to publish time out event")
	}
}

// CorrectionRequested publishes an attendance.correction.requested event
func (p *Publisher) CorrectionRequested(ctx context.Context, requestID, logID, requestedBy string) {
	err := p.publisher.Publish(ctx, messaging.EventCorrectionRequested, messaging.CorrectionEvent{
		RequestID:       requestID,
		AttendanceLogID: logID,
		RequestedBy:     requestedBy,
		Status:          "PENDING",
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to publish correction requested event")
	}
}

// CorrectionReviewed publishes an approved or rejected correction event
func (p *Publisher) CorrectionReviewed(ctx context.Context, requestID, logID, requestedBy, reviewedBy, status string) {
	eventType := messaging.EventCorrectionApproved
	if status == "REJECTED" {
		eventType = messaging.EventCorrectionRejected
	}
	err := p.publisher.Publish(ctx, eventType, messaging.CorrectionEvent{
		RequestID:       requestID,
		AttendanceLogID: logID,
		RequestedBy:     requestedBy,
		Status:          status,
		ReviewedBy:      reviewedBy,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("request_id", requestID).Msg("failed to publish correction reviewed event")
	}
}
