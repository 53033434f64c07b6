// Package events publishes payroll domain events.
package events

import (
	"context"

	"github.com/pastrypal/pastrypal-backend/pkg/logger"
	"github.com/pastrypal/pastrypal-backend/pkg/messaging"
)

// Publisher publishes payroll events. Publish failures are logged and never
// fail the payroll operation.
type Publisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a payroll event publisher
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangePayrollEvents, "pastrypal-backend", log)
	if err != nil {
		return nil, err
	}
	return &Publisher{publisher: pub, logger: log.WithComponent("payroll.events")}, nil
}

// RunComputed publishes a payroll.run.computed event
func (p *Publisher) RunComputed(ctx context.Context, runID string, month, year, itemCount int) {
	err := p.publisher.Publish(ctx, messaging.EventPayrollComputed, messaging.PayrollRunEvent{
		RunID:     runID,
		Month:     month,
		Year:      year,
		Status:    "DRAFT",
		ItemCount: itemCount,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("run_id", runID).Msg("failed to publish payroll computed event")
	}
}

// RunFinalized publishes a payroll.run.finalized event
func (p *Publisher) RunFinalized(ctx context.Context, runID string, month, year int) {
	err := p.publisher.Publish(ctx, messaging.EventPayrollFinalized, messaging.PayrollRunEvent{
		RunID:  runID,
		Month:  month,
		Year:   year,
		Status: "FINAL",
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("run_id", runID).Msg("failed to publish payroll finalized event")
	}
}
