package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/logging"
)

// NewPromoteCmd grants the admin role to an existing user. Signup never assigns
// it, so this is how the first administrator is created.
func NewPromoteCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to a registered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			return runPromote(cmd.Context(), *configPath, email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	return cmd
}

func runPromote(ctx context.Context, configPath, email string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	if err != nil {
		return err
	}
	if err := app.NewAuthService(b.users, tokens).PromoteToAdmin(ctx, email); err != nil {
		return fmt.Errorf("promote %s: %w", email, err)
	}
	log := logging.Component("promote")
	log.Info().Str("email", email).Msg("user promoted to admin")
	return nil
}
