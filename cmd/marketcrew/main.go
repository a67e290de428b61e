package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/marketcrew/adapter/llm"
	"github.com/scttfrdmn/marketcrew/config"
	"github.com/scttfrdmn/marketcrew/crew"
	"github.com/scttfrdmn/marketcrew/middleware"
	"github.com/scttfrdmn/marketcrew/observability"
)

var (
	v   = config.New()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "marketcrew",
		Short:         "Smartphone market analysis agents and chat demo.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			cfg = loaded

			level, err := observability.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			observability.ConfigureLogging(observability.LogOptions{
				Level:               level,
				Structured:          cfg.LogFormat == config.FormatJSON,
				IncludeTraceContext: true,
			})

			_, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
				ServiceName:  cfg.ServiceName,
				OTLPEndpoint: cfg.OTLPEndpoint,
				Console:      cfg.TraceConsole,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return observability.Shutdown(context.Background())
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", `log level: "debug", "info", "warn" or "error"`)
	flags.String("log-format", config.FormatText, `log format: "text" or "json"`)
	flags.String("llm-provider", llm.ProviderOpenAI, "model provider: openai, gemini or bedrock")
	flags.String("llm-model", "", "model name (provider default when empty)")
	flags.String("llm-base-url", "", "OpenAI-compatible base URL or Bedrock endpoint")
	flags.Duration("llm-timeout", 60*time.Second, "per-call model timeout (0 disables it)")
	flags.Int("max-steps", 10, "maximum ReAct steps per task")
	flags.String("otel-endpoint", "", "OTLP gRPC endpoint for traces")
	flags.Bool("trace-console", false, "print spans to stdout")

	bindFlag(rootCmd, "log.level", "log-level")
	bindFlag(rootCmd, "log.format", "log-format")
	bindFlag(rootCmd, "llm.provider", "llm-provider")
	bindFlag(rootCmd, "llm.model", "llm-model")
	bindFlag(rootCmd, "llm.base-url", "llm-base-url")
	bindFlag(rootCmd, "llm.timeout", "llm-timeout")
	bindFlag(rootCmd, "llm.max-steps", "max-steps")
	bindFlag(rootCmd, "otel.endpoint", "otel-endpoint")
	bindFlag(rootCmd, "otel.console", "trace-console")

	rootCmd.AddCommand(serveCmd, crewCmd, lookupCmd)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// newExecutor builds the ReAct executor over the configured model.
func newExecutor(ctx context.Context) (crew.Executor, error) {
	if err := cfg.RequireCredential(); err != nil {
		return nil, err
	}
	model, err := llm.New(ctx, cfg.LLM.Adapter())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", cfg.LLM.Provider, err)
	}
	slog.Info("model configured", "provider", cfg.LLM.Provider, "model", model.Model(), "timeout", cfg.LLM.Timeout)

	return crew.NewReActExecutor(crew.ReActConfig{
		Model:       middleware.WithTimeout(model, cfg.LLM.Timeout),
		MaxSteps:    cfg.LLM.MaxSteps,
		Temperature: cfg.LLM.Temperature,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
