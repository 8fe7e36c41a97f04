package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layoutsched/layoutsched/generator"
	"github.com/layoutsched/layoutsched/schedule"
)

var (
	generateSchedule string
	generateOutput   string
)

var generateCmd = &cobra.Command{
	Use:   "generate filename",
	Short: "Rewrite dispatches and globals to match a Schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		irText, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		scheduleData, err := os.ReadFile(generateSchedule)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		sched, err := schedule.Load(scheduleData)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		out, err := generator.Generate(string(irText), sched)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		return writeOutput(generateOutput, []byte(out))
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateSchedule, "schedule", "", "Path to the Schedule JSON")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "Output path for the rewritten IR (default: stdout)")
	generateCmd.MarkFlagRequired("schedule")
}
