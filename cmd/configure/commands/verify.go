package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcat4/token-gate/internal/services/idtoken"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var audience string

	cmd := &cobra.Command{
		Use:   "verify <id-token>",
		Short: "Verify an ID token",
		Long:  "Verify a Google ID token against the live signing keys and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawToken := args[0]

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			certs := idtoken.NewCertsManager(nil)
			verifier := idtoken.NewVerifier(certs)

			ticket, err := verifier.Verify(ctx, rawToken, audience)
			if err != nil {
				return fmt.Errorf("token verification failed: %w", err)
			}

			fmt.Println("✓ Token verified")
			fmt.Printf("\nEnvelope: %s\n", ticket.Envelope())

			if userID, ok := ticket.UserID(); ok {
				fmt.Printf("User ID: %s\n", userID)
			}

			claims, err := json.MarshalIndent(ticket.Payload(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render claims: %w", err)
			}
			fmt.Printf("\nClaims:\n%s\n", claims)

			if audience == "" {
				fmt.Fprintln(os.Stderr, "\nWarning: no --audience given, audience check was skipped")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "OAuth2 client ID the token must be issued for (omit to skip the audience check)")

	return cmd
}
