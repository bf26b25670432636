package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/spf13/cobra"
)

var (
	sourcesPath    string
	brdID          string
	projectContext string
	dbPath         string
	llmProvider    string
	llmModel       string
	llmTimeout     int
	classifierURL  string
	waitForRun     bool
	pollInterval   time.Duration
	runTimeout     time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a BRD from a sources file",
	Long: `Generate kicks off the BRD agent for one document:
- Load raw sources (transcripts, emails, chat, documents) from a JSON file
- Start the agent run in the background and print the run id
- With --wait, poll until the run reaches a terminal status

The sources file is a JSON array of objects with type, content, and
optional metadata fields.

Example:
  projectiq generate --sources sources.json --brd brd-2024-001
  projectiq generate --sources sources.json --brd brd-2024-001 --wait
  projectiq generate --sources sources.json --brd brd-2024-001 --llm-provider anthropic`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&sourcesPath, "sources", "", "path to sources JSON file (required)")
	generateCmd.Flags().StringVar(&brdID, "brd", "", "BRD document id (required)")
	generateCmd.Flags().StringVar(&projectContext, "context", "", "project context for the agent prompt")
	generateCmd.Flags().StringVar(&dbPath, "db", "projectiq.db", "SQLite database path")
	generateCmd.Flags().StringVar(&llmProvider, "llm-provider", "anthropic", "LLM provider (openai, anthropic)")
	generateCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
	generateCmd.Flags().IntVar(&llmTimeout, "llm-timeout", 60, "per-request LLM timeout in seconds")
	generateCmd.Flags().StringVar(&classifierURL, "classifier-url", "", "relevance classifier base URL (empty = fail open)")
	generateCmd.Flags().BoolVar(&waitForRun, "wait", false, "poll until the run finishes")
	generateCmd.Flags().DurationVar(&pollInterval, "poll", 2*time.Second, "status poll interval with --wait")
	generateCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall timeout with --wait")

	_ = generateCmd.MarkFlagRequired("sources")
	_ = generateCmd.MarkFlagRequired("brd")
}

// loadSources reads and validates the sources JSON file
func loadSources(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources []model.Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("sources file %s contains no sources", path)
	}

	return sources, nil
}

// configFromFlags builds the runtime configuration for agent commands
func configFromFlags() *model.Config {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.Timeout = llmTimeout
	cfg.Classifier.BaseURL = classifierURL
	cfg.Store.Path = dbPath
	cfg.Output.Verbose = verbose
	return cfg
}

func runGenerate(cmd *cobra.Command, args []string) error {
	sources, err := loadSources(sourcesPath)
	if err != nil {
		return err
	}

	a, err := buildApp(configFromFlags())
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "BRD: %s\n", brdID)
		fmt.Fprintf(os.Stderr, "Sources: %d\n", len(sources))
		fmt.Fprintf(os.Stderr, "Provider: %s\n", llmProvider)
		fmt.Fprintln(os.Stderr)
	}

	ctx := context.Background()
	runID, err := a.runner.StartRun(ctx, brdID, sources, projectContext)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	fmt.Printf("run_id: %s\n", runID)

	if !waitForRun {
		fmt.Printf("status: %s\n", model.RunRunning)
		fmt.Println("Poll with: projectiq status " + runID)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	run, err := a.runner.WaitForRun(waitCtx, runID, pollInterval)
	if err != nil {
		return fmt.Errorf("wait for run: %w", err)
	}

	printRun(run)
	if run.Status == model.RunFailed {
		return fmt.Errorf("run %s failed", runID)
	}
	return nil
}

// printRun renders a run record to stdout
func printRun(run *model.AgentRun) {
	fmt.Printf("run_id: %s\n", run.ID)
	fmt.Printf("brd_id: %s\n", run.BRDID)
	fmt.Printf("status: %s\n", run.Status)
	if run.Output != "" {
		var summary model.RunSummary
		if err := json.Unmarshal([]byte(run.Output), &summary); err == nil {
			fmt.Printf("steps: %d\n", summary.Steps)
			fmt.Printf("conflicts: %d\n", summary.Conflicts)
			fmt.Printf("has_sentiment: %t\n", summary.HasSentiment)
			if summary.Error != "" {
				fmt.Printf("error: %s\n", summary.Error)
			}
		} else {
			fmt.Printf("output: %s\n", run.Output)
		}
	}
	if run.FinishedAt != nil {
		fmt.Printf("duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
}
