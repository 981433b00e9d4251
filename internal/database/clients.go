package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jcat4/token-gate/internal/models"
)

// ClientRepository handles relying-party client database operations
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create creates a new client registration
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, audience, hosted_domain, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		client.ID,
		client.Name,
		client.Audience,
		client.HostedDomain,
		client.Disabled,
		now,
		now,
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByAudience retrieves a client by its registered audience value
func (r *ClientRepository) GetByAudience(ctx context.Context, audience string) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, name, audience, hosted_domain, disabled, created_at, updated_at
		FROM clients
		WHERE audience = $1
	`

	err := r.db.QueryRowContext(ctx, query, audience).Scan(
		&client.ID,
		&client.Name,
		&client.Audience,
		&client.HostedDomain,
		&client.Disabled,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found for audience %s: %w", audience, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// GetByName retrieves a client by name
func (r *ClientRepository) GetByName(ctx context.Context, name string) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, name, audience, hosted_domain, disabled, created_at, updated_at
		FROM clients
		WHERE name = $1
	`

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&client.ID,
		&client.Name,
		&client.Audience,
		&client.HostedDomain,
		&client.Disabled,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %s: %w", name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// GetAll retrieves all registered clients ordered by name
func (r *ClientRepository) GetAll(ctx context.Context) ([]*models.Client, error) {
	query := `
		SELECT id, name, audience, hosted_domain, disabled, created_at, updated_at
		FROM clients
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			_ = err
		}
	}()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Audience,
			&client.HostedDomain,
			&client.Disabled,
			&client.CreatedAt,
			&client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, nil
}

// Update updates an existing client registration
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET audience = $2, hosted_domain = $3, disabled = $4, updated_at = $5
		WHERE name = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		client.Name,
		client.Audience,
		client.HostedDomain,
		client.Disabled,
		time.Now(),
	).Scan(&client.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("client not found: %s: %w", client.Name, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}
