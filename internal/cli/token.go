package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/susu3304/sharetabbot/internal/api"
	"github.com/susu3304/sharetabbot/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject  string
		channels []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the split history API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBase()
			if err != nil {
				return err
			}
			token, err := api.IssueToken(cfg.JWTSecret, subject, channels, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dashboard", "token subject")
	cmd.Flags().StringSliceVar(&channels, "channel", nil, "restrict the token to these channel IDs (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
