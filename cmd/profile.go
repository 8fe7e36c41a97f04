package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/layoutsched/layoutsched/profiler"
)

var (
	profileTimes          int
	profileJobs           int
	profileCheckPeriod    float64
	profileDriver         string
	profileCacheDir       string
	profileCompileOptions string
	profileMode           string
	profileOutput         string
)

var profileCmd = &cobra.Command{
	Use:   "profile filename",
	Short: "Measure per-kernel, per-layout execution time into a KStat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileMode != "kernel" {
			return fmt.Errorf("profile: mode %q is not implemented, only \"kernel\" measures anything", profileMode)
		}

		irText, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}

		cfg := profiler.ConfigFromEnv()
		if cmd.Flags().Changed("times") {
			cfg.Times = profileTimes
		}
		if profileJobs > 0 {
			cfg.WorkerNum = profileJobs
		}
		if cmd.Flags().Changed("check-period") {
			cfg.CheckPeriod = profileCheckPeriod
		}
		cfg.Driver = profileDriver
		if profileCacheDir != "" {
			cfg.ProfileCache = profileCacheDir
		}

		opts, err := loadCompileOptions(profileDriver, profileCompileOptions)
		if err != nil {
			return err
		}
		cfg.Options = opts

		backend := &profiler.FakeBackend{Debug: cfg.Debug}
		logrus.Infof("profile: measuring %s with driver %q, %d worker(s)", args[0], profileDriver, cfg.WorkerNum)
		result, err := profiler.Profile(context.Background(), string(irText), cfg, backend, backend)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}

		if err := appendProfileCacheLog(cfg.ProfileCache, 0, result); err != nil {
			return err
		}

		data, err := result.Dump()
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		return writeOutput(profileOutput, data)
	},
}

func init() {
	profileCmd.Flags().IntVar(&profileTimes, "times", 50, "Number of measurement repetitions per combination")
	profileCmd.Flags().IntVar(&profileJobs, "jobs", 0, "Number of worker goroutines (default: host CPU count)")
	profileCmd.Flags().Float64Var(&profileCheckPeriod, "check-period", 5.0, "Seconds between liveness checks (accepted but not used by the in-process driver)")
	profileCmd.Flags().StringVar(&profileDriver, "driver", "", "Backend driver name")
	profileCmd.Flags().StringVar(&profileCacheDir, "profile-cache", "", "Directory for the append-only worker-log index")
	profileCmd.Flags().StringVar(&profileCompileOptions, "compile-options", "", "YAML file or inline YAML mapping of compiler options")
	profileCmd.Flags().StringVar(&profileMode, "mode", "kernel", "Profiling mode: io, kernel, or pipeline")
	profileCmd.Flags().StringVar(&profileOutput, "output", "", "Output path for the KStat JSON (default: stdout)")
}
