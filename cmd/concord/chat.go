package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"concord/internal/agent"
	"concord/internal/audit"
	"concord/internal/config"
	"concord/internal/executor"
	"concord/internal/llm"
	"concord/internal/logging"
	"concord/internal/platform"
	"concord/internal/remote"
	"concord/internal/tools"
)

var (
	promptStyle = color.New(color.FgCyan, color.Bold).SprintFunc()
	answerStyle = color.New(color.FgGreen).SprintFunc()
	errorStyle  = color.New(color.FgRed).SprintFunc()
	noteStyle   = color.New(color.FgHiBlack).SprintFunc()
)

func newChatCommand() *cobra.Command {
	var serverURL, serverToken string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant from the terminal",
		Long: "Starts an interactive conversation, or answers a single message when one\n" +
			"is given as an argument. With --server the tools run on a remote tool\n" +
			"server instead of in-process.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			remoteMode := serverURL != ""
			if !remoteMode {
				if err := cfg.Validate(false); err != nil {
					return err
				}
			}
			return runChat(cmd, cfg, serverURL, serverToken, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "tool server websocket URL (ws://host:port/ws)")
	cmd.Flags().StringVar(&serverToken, "token", "", "bearer token for --server")
	return cmd
}

func runChat(cmd *cobra.Command, cfg *config.Config, serverURL, serverToken, oneShot string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	registry, err := tools.NewRegistry(tools.Catalog(time.Now())...)
	if err != nil {
		return err
	}

	client, err := llm.New(llm.ProviderConfig{
		Provider: cfg.Model.Provider,
		Model:    cfg.Model.Name,
		APIKey:   cfg.Model.APIKey,
		BaseURL:  cfg.Model.BaseURL,
		Logger:   logging.NewComponentLogger("LLM"),
	})
	if err != nil {
		return err
	}
	// One completion per second smooths bursts from rapid-fire tool rounds.
	client = llm.WrapWithUserRateLimit(client, rate.Every(time.Second), 2)

	invoker, cleanup, err := buildInvoker(cmd, cfg, registry, client, serverURL, serverToken)
	if err != nil {
		return err
	}
	defer cleanup()

	loop, err := agent.NewLoop(agent.Config{
		Client:       client,
		Invoker:      invoker,
		Registry:     registry,
		SystemPrompt: systemPrompt(),
		User:         "chat",
		Temperature:  cfg.Model.Temperature,
		MaxRounds:    cfg.Loop.MaxRounds,
		RoundTimeout: cfg.Loop.RoundTimeout,
		Logger:       logging.NewComponentLogger("Loop"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if oneShot != "" {
		answer, err := loop.Run(ctx, oneShot)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
		return nil
	}

	fmt.Fprintln(out, noteStyle("concord chat, model "+client.Model()+". Ctrl-D to quit."))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, promptStyle("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/reset" {
			loop.Reset()
			fmt.Fprintln(out, noteStyle("conversation cleared"))
			continue
		}

		answer, err := loop.Run(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, errorStyle("error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, answerStyle(answer))
	}
}

// buildInvoker picks between in-process and remote tool execution.
func buildInvoker(cmd *cobra.Command, cfg *config.Config, registry *tools.Registry, summarizer llm.Client, serverURL, serverToken string) (agent.Invoker, func(), error) {
	if serverURL != "" {
		client, err := remote.Dial(cmd.Context(), serverURL, serverToken, logging.NewComponentLogger("Remote"))
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}

	api, err := platform.NewRESTClient(platform.RESTConfig{
		BaseURL: cfg.Platform.BaseURL,
		Token:   cfg.Platform.Token,
		Logger:  logging.NewComponentLogger("Platform"),
	})
	if err != nil {
		return nil, nil, err
	}

	exec, err := executor.New(executor.Config{
		Registry:   registry,
		Platform:   api,
		Summarizer: summarizer,
		Logger:     logging.NewComponentLogger("Executor"),
	})
	if err != nil {
		return nil, nil, err
	}

	auditor := audit.Store(audit.NewMemoryStore())
	cleanup := func() {}
	if cfg.Audit.PostgresDSN != "" {
		pg, err := audit.NewPostgresStore(cmd.Context(), cfg.Audit.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect audit store: %w", err)
		}
		auditor = pg
		cleanup = func() { _ = pg.Close(cmd.Context()) }
	}

	return agent.NewLocalInvoker(exec, auditor, "chat", logging.NewComponentLogger("Invoker")), cleanup, nil
}

func systemPrompt() string {
	return strings.TrimSpace(`
You are Concord, an assistant for a community chat server. You can inspect
channels, members, and scheduled events, send and moderate messages, and
manage events, using the tools available to you. Use tools whenever the
question concerns live server state; never invent channel names, member
counts, or event details. Answer plainly and keep responses short.
`)
}
