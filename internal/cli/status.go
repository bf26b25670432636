package cli

import (
	"context"
	"fmt"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/store"
	"github.com/spf13/cobra"
)

var (
	statusDBPath string
	showSteps    bool
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <run_id>",
	Short: "Show the status of an agent run",
	Long: `Status polls one agent run by id and prints its current state.
With --steps, the full tool invocation log is printed as well.

Example:
  projectiq status 3f8a2c91d0e44b67a1f5c9028d3e7a10
  projectiq status 3f8a2c91d0e44b67a1f5c9028d3e7a10 --steps`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDBPath, "db", "projectiq.db", "SQLite database path")
	statusCmd.Flags().BoolVar(&showSteps, "steps", false, "print the tool invocation log")
}

func runStatus(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.NewStore(statusDBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	printRun(run)

	if showSteps {
		steps, err := st.ListSteps(ctx, runID)
		if err != nil {
			return fmt.Errorf("list steps: %w", err)
		}
		printSteps(steps)
	}

	return nil
}

// printSteps renders the step log
func printSteps(steps []model.AgentStep) {
	fmt.Printf("\nsteps (%d):\n", len(steps))
	for i, step := range steps {
		output := step.Output
		if len(output) > 200 {
			output = output[:200] + "..."
		}
		fmt.Printf("  %d. %s  %s\n     %s\n", i+1, step.ToolName,
			step.Timestamp.Format("15:04:05.000"), output)
	}
}
