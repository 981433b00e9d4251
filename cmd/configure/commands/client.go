package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jcat4/token-gate/internal/config"
	"github.com/jcat4/token-gate/internal/database"
	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/validation"
)

// NewClientCmd creates the client registration command
func NewClientCmd() *cobra.Command {
	var audience, hostedDomain string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "client <name>",
		Short: "Register or update a client",
		Long:  "Register a client application whose audience tokens are verified against. Name can be any identifier (e.g., 'web', 'mobile', 'backoffice')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if name == "" {
				return fmt.Errorf("client name cannot be empty")
			}
			if audience == "" {
				return fmt.Errorf("required flag: --audience")
			}
			if hostedDomain != "" {
				input := struct {
					Domain string `validate:"hosted_domain"`
				}{Domain: hostedDomain}
				if err := validation.Validate.Struct(&input); err != nil {
					return fmt.Errorf("invalid hosted domain %q: %w", hostedDomain, err)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()
			if err := db.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to ensure schema: %w", err)
			}

			clientRepo := database.NewClientRepository(db)

			// Check if the client already exists
			existing, err := clientRepo.GetByName(ctx, name)
			if err == nil && existing != nil {
				// Update existing
				existing.Audience = audience
				if hostedDomain != "" {
					existing.HostedDomain = &hostedDomain
				} else {
					existing.HostedDomain = nil
				}
				existing.Disabled = disabled

				if err := clientRepo.Update(ctx, existing); err != nil {
					return fmt.Errorf("failed to update client: %w", err)
				}
				fmt.Printf("Updated client: %s\n", name)
			} else {
				// Create new
				client := &models.Client{
					ID:       uuid.New(),
					Name:     name,
					Audience: audience,
					Disabled: disabled,
				}
				if hostedDomain != "" {
					client.HostedDomain = &hostedDomain
				}

				if err := clientRepo.Create(ctx, client); err != nil {
					return fmt.Errorf("failed to create client: %w", err)
				}
				fmt.Printf("Created client: %s\n", name)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "OAuth2 client ID tokens must be issued for (required)")
	cmd.Flags().StringVar(&hostedDomain, "hosted-domain", "", "Google Workspace domain tokens must carry in their hd claim (optional)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Register the client as disabled")

	return cmd
}
