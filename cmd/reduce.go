package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/layoutsched/layoutsched/kstat"
)

var (
	reduceIOStat string
	reduceKStat  string
	reduceOutput string
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Subtract measured IO cost from a KStat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kstatData, err := os.ReadFile(reduceKStat)
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}
		ks, err := kstat.Load(kstatData)
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}

		iostatData, err := os.ReadFile(reduceIOStat)
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}
		io, err := kstat.LoadIOStat(iostatData)
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}

		reduced := ks.Reduce(io)
		data, err := reduced.Dump()
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}
		return writeOutput(reduceOutput, data)
	},
}

func init() {
	reduceCmd.Flags().StringVar(&reduceIOStat, "iostat", "", "Path to the IOStat JSON")
	reduceCmd.Flags().StringVar(&reduceKStat, "kstat", "", "Path to the KStat JSON")
	reduceCmd.Flags().StringVar(&reduceOutput, "output", "", "Output path for the reduced KStat JSON (default: stdout)")
	reduceCmd.MarkFlagRequired("iostat")
	reduceCmd.MarkFlagRequired("kstat")
}
