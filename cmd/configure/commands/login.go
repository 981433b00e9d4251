package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcat4/token-gate/internal/config"
	"github.com/jcat4/token-gate/internal/services/idtoken"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var code, state string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an ID token interactively",
		Long:  "Print the Google authorization URL, or exchange an authorization code for an ID token with --code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.OAuthClientID == "" || cfg.OAuthRedirectURI == "" {
				return fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_REDIRECT_URI must be set")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			provider := idtoken.NewProvider(cfg.Issuer)
			meta, err := provider.Metadata(ctx)
			if err != nil {
				return fmt.Errorf("provider discovery failed: %w", err)
			}

			oauthClient := idtoken.NewOAuthClient(cfg.OAuthClientID, cfg.OAuthSecret, cfg.OAuthRedirectURI, meta)

			if code == "" {
				fmt.Println("Open the following URL in a browser, then re-run with --code:")
				fmt.Println(oauthClient.AuthCodeURL(state))
				return nil
			}

			idToken, err := oauthClient.ExchangeCode(ctx, code)
			if err != nil {
				return fmt.Errorf("code exchange failed: %w", err)
			}

			fmt.Println(idToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code returned by the provider")
	cmd.Flags().StringVar(&state, "state", "cli", "Opaque state value carried through the authorization flow")

	return cmd
}
