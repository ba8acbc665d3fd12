package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"concord/internal/audit"
)

func newAuditCommand() *cobra.Command {
	var (
		clientID string
		tool     string
		since    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the tool invocation audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Audit.PostgresDSN == "" {
				return fmt.Errorf("audit.postgres_dsn is required to query the audit log")
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			store, err := audit.NewPostgresStore(ctx, cfg.Audit.PostgresDSN)
			if err != nil {
				return err
			}
			defer store.Close(ctx) //nolint:errcheck

			filter := audit.Filter{ClientID: clientID, Tool: tool, Limit: limit}
			if since != "" {
				from, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since, want RFC 3339: %w", err)
				}
				filter.From = from
			}

			records, err := store.Query(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %-8s  %-12s  %-28s  %s\n",
					rec.Time.Format(time.RFC3339), rec.Outcome, rec.ClientID, rec.Tool, rec.Detail)
			}
			fmt.Fprintf(out, "%d record(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "filter by client id")
	cmd.Flags().StringVar(&tool, "tool", "", "filter by tool name")
	cmd.Flags().StringVar(&since, "since", "", "only records at or after this RFC 3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum records")
	return cmd
}
