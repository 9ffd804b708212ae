// Command gentoken mints an HS256 bearer token for local development.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gravadigital/eventhub-api/internal/identity"
)

var (
	subject  string
	email    string
	name     string
	ttl      time.Duration
	secret   string
	issuer   string
	audience string
	port     string
)

var rootCmd = &cobra.Command{
	Use:   "gentoken",
	Short: "Sign a development token accepted by the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if secret == "" {
			secret = os.Getenv("AUTH_JWT_SECRET")
		}
		if secret == "" {
			return errors.New("AUTH_JWT_SECRET is not set; pass --secret or add it to .env")
		}
		if subject == "" {
			return errors.New("--sub is required")
		}

		token, err := identity.SignHS256(secret, identity.Identity{
			SubjectID:   subject,
			Email:       email,
			DisplayName: name,
		}, issuer, audience, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Try it:")
		fmt.Fprintf(out, "  curl -X POST -H 'Authorization: Bearer %s' http://localhost:%s/api/auth/login\n", token, port)
		return nil
	},
}

func init() {
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.StringVar(&subject, "sub", "", "subject id of the identity")
	flags.StringVar(&email, "email", "", "email claim")
	flags.StringVar(&name, "name", "", "display name claim")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flags.StringVar(&secret, "secret", "", "signing secret (defaults to AUTH_JWT_SECRET)")
	flags.StringVar(&issuer, "issuer", os.Getenv("AUTH_JWT_ISSUER"), "iss claim")
	flags.StringVar(&audience, "audience", os.Getenv("AUTH_JWT_AUDIENCE"), "aud claim")
	flags.StringVar(&port, "port", envOr("PORT", "8080"), "API port used in the example command")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
