package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jcat4/token-gate/internal/models"
)

// AuditEventRepository handles audit event database operations
type AuditEventRepository struct {
	db *DB
}

// NewAuditEventRepository creates a new audit event repository
func NewAuditEventRepository(db *DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

// Insert persists a verification audit event
func (r *AuditEventRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, audience, subject, outcome, reason, client_ip, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Audience,
		event.Subject,
		event.Outcome,
		event.Reason,
		event.ClientIP,
		event.OccurredAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// GetRecentByAudience returns the most recent audit events for an audience
func (r *AuditEventRepository) GetRecentByAudience(ctx context.Context, audience string, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, audience, subject, outcome, reason, client_ip, occurred_at
		FROM audit_events
		WHERE audience = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, audience, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			_ = err
		}
	}()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		err := rows.Scan(
			&event.ID,
			&event.Audience,
			&event.Subject,
			&event.Outcome,
			&event.Reason,
			&event.ClientIP,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}
