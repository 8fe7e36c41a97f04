package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layoutsched/layoutsched/analyzer"
	"github.com/layoutsched/layoutsched/kstat"
)

var (
	analyzeMode   string
	analyzeKStat  string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze filename",
	Short: "Choose a layout Schedule from a KStat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		irText, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		kstatData, err := os.ReadFile(analyzeKStat)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		ks, err := kstat.Load(kstatData)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		sched, err := analyzer.Analyze(string(irText), ks, analyzer.Mode(analyzeMode))
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		data, err := sched.Dump()
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		return writeOutput(analyzeOutput, data)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "dp", "Analysis mode: dp or greedy")
	analyzeCmd.Flags().StringVar(&analyzeKStat, "kstat", "", "Path to the KStat JSON")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "Output path for the Schedule JSON (default: stdout)")
	analyzeCmd.MarkFlagRequired("kstat")
}
