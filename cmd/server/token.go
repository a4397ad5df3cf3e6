package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rj-tabelon/rentalrabbit/internal/auth"
	"github.com/rj-tabelon/rentalrabbit/internal/config"
	"github.com/spf13/cobra"
)

// tokenCmd issues an HS256 token signed with AUTH_JWT_SECRET, for poking
// at a local server without the identity provider.
func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(role) {
			case "tenant", "manager":
			default:
				return fmt.Errorf("--role must be tenant or manager")
			}
			if subject == "" {
				return fmt.Errorf("--sub is required")
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}

			token, err := auth.GenerateToken(subject, role, cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "subject (cognitoId)")
	cmd.Flags().StringVar(&role, "role", "tenant", "tenant or manager")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
