package database

import (
	"context"

	"github.com/jcat4/token-gate/internal/models"
)

// ClientRepositoryInterface defines the interface for client repository operations
// This interface enables better testability by allowing mock implementations
type ClientRepositoryInterface interface {
	GetByAudience(ctx context.Context, audience string) (*models.Client, error)
	GetByName(ctx context.Context, name string) (*models.Client, error)
	GetAll(ctx context.Context) ([]*models.Client, error)
}

// AuditEventRepositoryInterface defines the interface for audit event repository operations
type AuditEventRepositoryInterface interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
}

// Ensure concrete types implement the interfaces
var (
	_ ClientRepositoryInterface     = (*ClientRepository)(nil)
	_ AuditEventRepositoryInterface = (*AuditEventRepository)(nil)
)
