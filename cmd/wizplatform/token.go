package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/wiz-platform/internal/api"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
)

type tokenOptions struct {
	Subject string
	TTL     time.Duration
}

func newTokenCommand(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the management API",
		Long: `Issue a bearer token signed with security.jwt.secret.

Examples:
  wizplatform token --subject admin
  wizplatform token --subject dashboard --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return issueToken(root, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default security.jwt.access_token_ttl minutes)")

	return cmd
}

func issueToken(root *rootOptions, opts *tokenOptions, out io.Writer) error {
	cfg, err := config.Load(root.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	}

	token, err := api.IssueToken(opts.Subject, cfg.Security.JWT.Secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
