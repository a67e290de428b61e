package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/marketcrew/chat"
	"github.com/scttfrdmn/marketcrew/memory"
	"github.com/scttfrdmn/marketcrew/observability"
	"github.com/scttfrdmn/marketcrew/safety"
	"github.com/scttfrdmn/marketcrew/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat demo server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := []chat.Option{chat.WithStrategy(cfg.ThinkingStrategy)}
		if cfg.NeedsModel() {
			exec, err := newExecutor(ctx)
			if err != nil {
				return err
			}
			opts = append(opts, chat.WithExecutor(exec))
		}

		history, err := newHistory(ctx)
		if err != nil {
			return err
		}

		_, scrape, err := observability.InitMetrics(ctx, cfg.ServiceName)
		if err != nil {
			return err
		}
		metrics, err := observability.NewChatMetrics(observability.Meter("marketcrew/server"))
		if err != nil {
			return err
		}

		guard := safety.NewMessageGuard(safety.DefaultMaxLength, nil)
		if cfg.NeedsModel() {
			guard = safety.NewMessageGuard(safety.DefaultMaxLength, safety.NewPromptInjectionDetector(safety.DefaultInjectionThreshold))
		}

		srv := server.New(chat.NewResponder(opts...),
			server.WithGuard(guard),
			server.WithHistory(history),
			server.WithHistoryLimit(cfg.HistorySize),
			server.WithMetrics(metrics, scrape),
		)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.Addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("chat-mode", "direct", `"direct" answers from lookups, "crew" runs an agent`)
	flags.String("thinking", string(chat.Synthesized), `thinking steps: "synthesized" or "parsed"`)
	flags.String("redis-url", "", "Redis URL for chat history (in-memory when empty)")

	bindFlag(serveCmd, "addr", "addr")
	bindFlag(serveCmd, "chat.mode", "chat-mode")
	bindFlag(serveCmd, "chat.thinking", "thinking")
	bindFlag(serveCmd, "redis-url", "redis-url")
}

func newHistory(ctx context.Context) (memory.Store, error) {
	if cfg.RedisURL == "" {
		return memory.NewInMemoryStore(cfg.HistorySize), nil
	}
	store, err := memory.NewRedisStore(cfg.RedisURL, memory.RedisOptions{
		TTL:     cfg.HistoryTTL,
		MaxSize: cfg.HistorySize,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
