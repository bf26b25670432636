package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Generate BRDs for multiple documents in parallel",
	Long: `Batch processes multiple BRD generations concurrently:
- Read generation specs from a JSON manifest
- Run generations in parallel with a configurable worker count
- Each run executes the full agent loop independently

The manifest is a JSON array of objects with brd_id, sources, and
optional project_context fields.

Example:
  projectiq batch manifest.json
  projectiq batch manifest.json --concurrency 5 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 3, "number of concurrent generations")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&dbPath, "db", "projectiq.db", "SQLite database path")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "anthropic", "LLM provider (openai, anthropic)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
	batchCmd.Flags().StringVar(&classifierURL, "classifier-url", "", "relevance classifier base URL (empty = fail open)")
	batchCmd.Flags().DurationVar(&pollInterval, "poll", 2*time.Second, "status poll interval")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]

	data, err := os.ReadFile(manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var specs []worker.GenerateSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("manifest %s contains no generation specs", manifest)
	}

	a, err := buildApp(configFromFlags())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(os.Stderr, "Batch: %d generations, %d workers\n", len(specs), concurrency)

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(a.runner, concurrency, pollInterval)
	results := processor.Process(ctx, specs)

	succeeded, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			fmt.Printf("✗ %s: %v\n", r.BRDID, r.Error)
		case r.Run != nil && r.Run.Status == model.RunDone:
			succeeded++
			fmt.Printf("✓ %s (run %s)\n", r.BRDID, r.RunID)
		default:
			failed++
			fmt.Printf("✗ %s (run %s): %s\n", r.BRDID, r.RunID, runError(r.Run))
		}
	}

	fmt.Printf("\n%d succeeded, %d failed\n", succeeded, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d generations failed", failed, len(results))
	}
	return nil
}

func runError(run *model.AgentRun) string {
	if run == nil {
		return "no run record"
	}
	var summary model.RunSummary
	if err := json.Unmarshal([]byte(run.Output), &summary); err == nil && summary.Error != "" {
		return summary.Error
	}
	return string(run.Status)
}
