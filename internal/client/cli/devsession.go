package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/auth"
	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// DevSessionOptions holds flags for the dev-session command.
type DevSessionOptions struct {
	*RootOptions
	Secret   string
	ID       string
	Email    string
	Name     string
	Verified bool
	TTL      time.Duration
}

// NewDevSessionCommand mints a session token signed with the server's shared
// secret, standing in for the identity provider during development.
func NewDevSessionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevSessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dev-session",
		Short: "Mint a development session token",
		Long: `Mint a session token signed with the server's shared secret. The secret is
read from --secret, then KEEPSAKE_SESSION_SECRET, then prompted for when
stdin is a terminal.

Example:
  keepsake dev-session --email ayse@istun.edu.tr --name Ayse`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := resolveSecret(cmd, opts.Secret)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(secret)
			if strings.TrimSpace(opts.Email) == "" {
				return errors.New("--email is required")
			}
			id := opts.ID
			if id == "" {
				id = uuid.NewString()
			}

			token, err := auth.GenerateToken(models.Viewer{
				ID:            id,
				Email:         opts.Email,
				DisplayName:   opts.Name,
				EmailVerified: opts.Verified,
			}, secret, opts.TTL)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Secret, "secret", "", "shared signing secret")
	cmd.Flags().StringVar(&opts.ID, "id", "", "viewer id (random when empty)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "viewer email")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().BoolVar(&opts.Verified, "verified", true, "mark the email as verified")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token validity")

	return cmd
}

func resolveSecret(cmd *cobra.Command, flagValue string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	if env := os.Getenv("KEEPSAKE_SESSION_SECRET"); env != "" {
		return []byte(env), nil
	}
	if !isTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("no signing secret: use --secret or KEEPSAKE_SESSION_SECRET")
	}
	secret, err := GetSecret("Signing secret", cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return secret, nil
}
