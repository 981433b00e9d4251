package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a registered relying party whose audience the verifier accepts.
type Client struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Audience string    `json:"audience"`
	// HostedDomain restricts tokens for this client to a Google Workspace
	// domain (the hd claim). Nil means no restriction.
	HostedDomain *string   `json:"hosted_domain,omitempty"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
