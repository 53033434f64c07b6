package service

import (
	"context"
	"time"

	"github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// CorrectionStore is the persistence surface for correction requests.
type CorrectionStore interface {
	Create(ctx context.Context, c *repository.Correction) error
	HasPendingForRequester(ctx context.Context, logID, requesterID string) (bool, error)
	GetByID(ctx context.Context, id string) (*repository.Correction, error)
	ListPending(ctx context.Context, requesterID string) ([]*repository.Correction, error)
	Approve(ctx context.Context, c *repository.Correction, reviewerID, reviewNotes string, reviewedAt time.Time) error
	Reject(ctx context.Context, id, reviewerID, reviewNotes string, reviewedAt time.Time) error
}

// CorrectionEventPublisher publishes correction lifecycle events.
type CorrectionEventPublisher interface {
	CorrectionRequested(ctx context.Context, requestID, logID, requestedBy string)
	CorrectionReviewed(ctx context.Context, requestID, logID, requestedBy, reviewedBy, status string)
}

// CorrectionService handles the correction review workflow
type CorrectionService struct {
	corrections CorrectionStore
	events      CorrectionEventPublisher
	audit       Auditor
	logger      *logger.Logger
	now         func() time.Time
}

// NewCorrectionService creates a new correction service
func NewCorrectionService(corrections CorrectionStore, events CorrectionEventPublisher, auditor Auditor, log *logger.Logger) *CorrectionService {
	return &CorrectionService{
		corrections: corrections,
		events:      events,
		audit:       auditor,
		logger:      log,
		now:         time.Now,
	}
}

// Propose files a pending correction request on behalf of a supervisor.
// A requester may have at most one pending request per log; rejection
// frees the slot for a fresh proposal.
func (s *CorrectionService) Propose(ctx context.Context, a *actor.Actor, log *repository.Log, req *EditRequest) (*repository.Correction, error) {
	pending, err := s.corrections.HasPendingForRequester(ctx, log.ID, a.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errors.Conflict("you already have a pending correction request for this attendance record")
	}

	correction := &repository.Correction{
		AttendanceLogID:  log.ID,
		RequestedBy:      a.ID,
		RequestedTimeIn:  req.TimeIn,
		RequestedTimeOut: req.TimeOut,
		Reason:           req.Reason,
	}
	if err := s.corrections.Create(ctx, correction); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", correction.ID).
		Str("attendance_log_id", log.ID).
		Str("requested_by", a.ID).
		Msg("correction request filed")
	s.audit.Record(ctx, a.ID, "ATTENDANCE_CORRECTION_REQUESTED", "correction_request", correction.ID, map[string]any{
		"attendance_log_id": log.ID,
	})
	s.events.CorrectionRequested(ctx, correction.ID, log.ID, a.ID)

	return correction, nil
}

// ListPending returns the review queue. Admins see every pending request;
// supervisors see only their own.
func (s *CorrectionService) ListPending(ctx context.Context) ([]*repository.Correction, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	if a.Role.CanReviewCorrections() {
		return s.corrections.ListPending(ctx, "")
	}
	return s.corrections.ListPending(ctx, a.ID)
}

// ReviewRequest decides a pending correction request
type ReviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// Review approves or rejects a pending request. Approval applies the
// requested times to the log and closes the request atomically; a request
// that is no longer pending conflicts either way.
func (s *CorrectionService) Review(ctx context.Context, requestID string, req *ReviewRequest) (*repository.Correction, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	if !a.Role.CanReviewCorrections() {
		return nil, errors.Forbidden("only admins can review correction requests")
	}

	correction, err := s.corrections.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if correction.Status != repository.CorrectionPending {
		return nil, errors.Conflict("correction request already reviewed")
	}

	reviewedAt := s.now().UTC()
	var status, action string

	if req.Action == "approve" {
		if err := s.corrections.Approve(ctx, correction, a.ID, req.Notes, reviewedAt); err != nil {
			return nil, err
		}
		status = repository.CorrectionApproved
		action = "ATTENDANCE_CORRECTION_APPROVED"
	} else {
		if err := s.corrections.Reject(ctx, correction.ID, a.ID, req.Notes, reviewedAt); err != nil {
			return nil, err
		}
		status = repository.CorrectionRejected
		action = "ATTENDANCE_CORRECTION_REJECTED"
	}

	correction.Status = status
	correction.ReviewedBy = nullString(a.ID)
	correction.ReviewedAt = &reviewedAt
	correction.ReviewNotes = nullString(req.Notes)

	s.logger.Info().
		Str("request_id", correction.ID).
		Str("status", status).
		Str("reviewed_by", a.ID).
		Msg("correction request reviewed")
	s.audit.Record(ctx, a.ID, action, "correction_request", correction.ID, map[string]any{
		"attendance_log_id": correction.AttendanceLogID,
	})
	s.events.CorrectionReviewed(ctx, correction.ID, correction.AttendanceLogID, correction.RequestedBy, a.ID, status)

	return correction, nil
}
