package cli

import (
	"github.com/spf13/cobra"
	"github.com/susu3304/sharetabbot/internal/config"
	"github.com/susu3304/sharetabbot/internal/logging"
)

var logLevel string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sharetabbot",
		Short:         "ShareTab bill-splitting bot for Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent); overrides LOG_LEVEL")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTokenCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newLogger(cfg *config.Config) *logging.Logger {
	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	return logging.New(nil, level)
}
