// Package audit records who did what to which entity. Entries are
// append-only; failures to record are logged but never fail the
// operation being audited.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// Entry is one audit log row
type Entry struct {
	ID         string          `db:"id" json:"id"`
	ActorID    string          `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Recorder writes audit entries
type Recorder struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(db *database.DB, log *logger.Logger) *Recorder {
	return &Recorder{db: db, logger: log.WithComponent("audit")}
}

// Record writes an audit entry. Metadata may be nil.
func (r *Recorder) Record(ctx context.Context, actorID, action, entityType, entityID string, metadata any) {
	var raw json.RawMessage
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			r.logger.Warn().Err(err).Str("action", action).Msg("failed to marshal audit metadata")
		} else {
			raw = b
		}
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), actorID, action, entityType, entityID, raw,
	); err != nil {
		r.logger.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Msg("failed to record audit entry")
	}
}

// ListRecent returns the most recent audit entries, newest first.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []*Entry
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, err
	}
	return entries, nil
}
