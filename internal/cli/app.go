package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chaitenyachand/ProjectIQ/internal/agent"
	"github.com/chaitenyachand/ProjectIQ/internal/classifier"
	"github.com/chaitenyachand/ProjectIQ/internal/conflict"
	"github.com/chaitenyachand/ProjectIQ/internal/extract"
	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/prioritize"
	"github.com/chaitenyachand/ProjectIQ/internal/sentiment"
	"github.com/chaitenyachand/ProjectIQ/internal/store"
	"github.com/chaitenyachand/ProjectIQ/internal/worker"
)

// app holds the wired components for one command invocation.
// Service handles are constructed once and passed explicitly into
// components; nothing reaches for hidden globals.
type app struct {
	runner *agent.Runner
	store  *store.Store
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
		}
	}
}

// resolveAPIKey fills the API key from the environment if the config
// does not carry one
func resolveAPIKey(cfg *model.Config) error {
	if cfg.LLM.APIKey != "" {
		return nil
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}
	return nil
}

// buildApp wires the full component graph from configuration
func buildApp(cfg *model.Config) (*app, error) {
	if cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("no LLM provider configured (use --llm-provider or config file)")
	}
	if err := resolveAPIKey(cfg); err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Output.Verbose),
	}))

	relevance := classifier.NewClient(cfg.Classifier, cfg.LLM)
	filterer := prioritize.NewFilterer(relevance, cfg.Classifier, cfg.Output.Verbose)
	extractor := extract.NewExtractor(provider, cfg.Output.Verbose)
	detector := conflict.NewDetector(provider, cfg.Output.Verbose)
	analyzer := sentiment.NewAnalyzer(provider, cfg.Output.Verbose)

	dispatcher := agent.NewDispatcher(filterer, extractor, detector, analyzer, st, logger)
	limiter := worker.NewKeyedLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	orchestrator := agent.NewOrchestrator(provider, dispatcher, limiter, cfg.Agent, logger)
	runner := agent.NewRunner(st, orchestrator, logger)

	return &app{runner: runner, store: st}, nil
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
