package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcat4/token-gate/internal/config"
	"github.com/jcat4/token-gate/internal/database"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered clients",
		Long:  "List all registered clients",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			clientRepo := database.NewClientRepository(db)
			ctx := context.Background()

			clients, err := clientRepo.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			if len(clients) == 0 {
				fmt.Println("No clients registered")
				return nil
			}

			fmt.Println("Registered clients:")
			for _, client := range clients {
				fmt.Printf("  - Name: %s\n", client.Name)
				fmt.Printf("    Audience: %s\n", client.Audience)
				if client.HostedDomain != nil {
					fmt.Printf("    Hosted domain: %s\n", *client.HostedDomain)
				}
				if client.Disabled {
					fmt.Printf("    Disabled: true\n")
				}
				fmt.Println()
			}

			return nil
		},
	}

	return cmd
}
