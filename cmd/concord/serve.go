package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"concord/internal/audit"
	"concord/internal/auth"
	"concord/internal/config"
	"concord/internal/executor"
	"concord/internal/llm"
	"concord/internal/logging"
	"concord/internal/platform"
	"concord/internal/remote"
	"concord/internal/tools"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the remote tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(true); err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.NewComponentLogger("Server")

	registry, err := tools.NewRegistry(tools.Catalog(time.Now())...)
	if err != nil {
		return err
	}

	api, err := platform.NewRESTClient(platform.RESTConfig{
		BaseURL: cfg.Platform.BaseURL,
		Token:   cfg.Platform.Token,
		Logger:  logging.NewComponentLogger("Platform"),
	})
	if err != nil {
		return err
	}

	tokens, err := auth.LoadTokenFile(cfg.Server.TokenFile)
	if err != nil {
		return err
	}
	logger.Info("loaded %d client credential(s)", tokens.Len())

	ctx, stop := signalContext(cmd)
	defer stop()

	var auditor audit.Store
	if cfg.Audit.PostgresDSN != "" {
		auditor, err = audit.NewPostgresStore(ctx, cfg.Audit.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
	} else {
		logger.Warn("no audit.postgres_dsn configured, audit log is in-memory only")
		auditor = audit.NewMemoryStore()
	}
	defer auditor.Close(ctx) //nolint:errcheck

	// summarize_channel runs the model server-side when a key is present.
	var summarizer llm.Client
	if cfg.Model.APIKey != "" || cfg.Model.Provider == "ollama" {
		summarizer, err = llm.New(llm.ProviderConfig{
			Provider: cfg.Model.Provider,
			Model:    cfg.Model.Name,
			APIKey:   cfg.Model.APIKey,
			BaseURL:  cfg.Model.BaseURL,
			Logger:   logging.NewComponentLogger("LLM"),
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no model credentials configured, summarize_channel is disabled")
	}

	exec, err := executor.New(executor.Config{
		Registry:   registry,
		Platform:   api,
		Summarizer: summarizer,
		Logger:     logging.NewComponentLogger("Executor"),
	})
	if err != nil {
		return err
	}

	srv, err := remote.NewServer(remote.ServerConfig{
		Addr:        cfg.Server.Addr,
		Tokens:      tokens,
		Policy:      auth.NewPolicy(auth.PolicyConfig{Limit: cfg.Limits.Calls, Window: cfg.Limits.Window}),
		Registry:    registry,
		Executor:    exec,
		Auditor:     auditor,
		IdleTimeout: cfg.Server.IdleTimeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
