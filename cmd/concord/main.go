// Command concord runs the assistant. Three modes: "chat" drives the
// orchestration loop from a terminal, "serve" exposes the tool executor to
// remote orchestrators, "audit" reviews the invocation trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"concord/internal/config"
	"concord/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "concord",
		Short:         "Tool-calling assistant for chat servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: ./concord.yaml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newChatCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newAuditCommand())
	return root
}

// loadConfig applies the shared flags and returns the runtime settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
