package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/database"
	"github.com/jcat4/token-gate/internal/queue"
)

// AuditRecorder consumes audit events from the queue and persists them.
type AuditRecorder struct {
	repo   database.AuditEventRepositoryInterface
	logger *zap.Logger
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(repo database.AuditEventRepositoryInterface, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{
		repo:   repo,
		logger: logger,
	}
}

// ProcessMessage persists a single audit event and acknowledges the message.
// Events that cannot be persisted are requeued; inserts are idempotent, so a
// redelivered event that was already written is acked on the retry.
func (r *AuditRecorder) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()
	if event == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Error("failed_to_nack_empty_message", zap.Error(nackErr))
		}
		return fmt.Errorf("message carries no event")
	}

	if err := r.repo.Insert(ctx, event); err != nil {
		r.logger.Error("failed_to_persist_audit_event",
			zap.String("event_id", event.ID.String()),
			zap.String("audience", event.Audience),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			return fmt.Errorf("failed to nack event: %w", nackErr)
		}
		return fmt.Errorf("failed to persist audit event: %w", err)
	}

	r.logger.Debug("audit_event_persisted",
		zap.String("event_id", event.ID.String()),
		zap.String("audience", event.Audience),
		zap.String("outcome", string(event.Outcome)),
	)

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack event: %w", ackErr)
	}
	return nil
}

// Run consumes messages until the context is cancelled or the channel closes.
func (r *AuditRecorder) Run(ctx context.Context, messages <-chan *queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				r.logger.Info("message_channel_closed")
				return
			}
			if err := r.ProcessMessage(ctx, msg); err != nil {
				r.logger.Error("failed_to_process_message", zap.Error(err))
			}
		}
	}
}
