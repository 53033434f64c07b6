// Package events publishes staff domain events.
package events

import (
	"context"

	"github.com/pastrypal/pastrypal-backend/pkg/logger"
	"github.com/pastrypal/pastrypal-backend/pkg/messaging"
)

// Publisher publishes staff events. All methods are best-effort; publish
// failures are logged and never fail the originating operation.
type Publisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a staff event publisher
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangeStaffEvents, "pastrypal-backend", log)
	if err != nil {
		return nil, err
	}
	return &Publisher{publisher: pub, logger: log.WithComponent("staff.events")}, nil
}

// EmployeeCreated publishes a staff.employee.created event
func (p *Publisher) EmployeeCreated(ctx context.Context, employeeID, employeeCode, name string) {
	err := p.publisher.Publish(ctx, messaging.EventEmployeeCreated, messaging.EmployeeCreatedEvent{
		EmployeeID:   employeeID,
		EmployeeCode: employeeCode,
		Name:         name,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("employee_id", employeeID).Msg("failed to publish employee created event")
	}
}

// EmployeeUpdated publishes a staff.employee.updated event
func (p *Publisher) EmployeeUpdated(ctx context.Context, employeeID string, fields map[string]any) {
	err := p.publisher.Publish(ctx, messaging.EventEmployeeUpdated, messaging.EmployeeUpdatedEvent{
		EmployeeID: employeeID,
		Fields:     fields,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("employee_id", employeeID).Msg("failed to publish employee updated event")
	}
}

// EmployeeDeleted publishes a staff.employee.deleted event
func (p *Publisher) EmployeeDeleted(ctx context.Context, employeeID string) {
	err := p.publisher.Publish(ctx, messaging.EventEmployeeDeleted, messaging.EmployeeDeletedEvent{
		EmployeeID: employeeID,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("employee_id", employeeID).Msg("failed to publish employee deleted event")
	}
}
