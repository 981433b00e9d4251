package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditOutcome classifies the result of a verification attempt.
type AuditOutcome string

const (
	// AuditOutcomeVerified means the token passed all checks.
	AuditOutcomeVerified AuditOutcome = "verified"
	// AuditOutcomeRejected means the token failed verification.
	AuditOutcomeRejected AuditOutcome = "rejected"
)

// AuditEvent records a single token verification attempt. Events are
// published to the queue by the server and persisted by the worker.
type AuditEvent struct {
	ID       uuid.UUID `json:"id"`
	Audience string    `json:"audience"`
	// Subject is the verified user ID. Nil for rejected tokens, whose
	// claims are untrusted.
	Subject    *string      `json:"subject,omitempty"`
	Outcome    AuditOutcome `json:"outcome"`
	Reason     *string      `json:"reason,omitempty"`
	ClientIP   *string      `json:"client_ip,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewAuditEvent creates an audit event stamped with the current time.
func NewAuditEvent(audience string, outcome AuditOutcome) *AuditEvent {
	return &AuditEvent{
		ID:         uuid.New(),
		Audience:   audience,
		Outcome:    outcome,
		OccurredAt: time.Now(),
	}
}
