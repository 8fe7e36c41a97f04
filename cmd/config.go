package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/profiler"
)

// loadCompileOptions resolves the --compile-options flag value. A value
// naming an existing file is read and parsed as YAML; anything else is
// parsed directly as an inline YAML mapping.
func loadCompileOptions(driver, raw string) (profiler.CompileOptions, error) {
	opts := profiler.CompileOptions{Driver: driver}
	if raw == "" {
		return opts, nil
	}

	body := []byte(raw)
	if data, err := os.ReadFile(raw); err == nil {
		body = data
	}

	extra := map[string]string{}
	if err := yaml.Unmarshal(body, &extra); err != nil {
		return opts, fmt.Errorf("compile-options: %w", err)
	}
	opts.Extra = extra
	return opts, nil
}

// profileCacheEntry is one worker-log record: a single measured
// (kernel, layouts) cell.
type profileCacheEntry struct {
	Kernel    string  `yaml:"kernel"`
	LayoutKey string  `yaml:"layouts"`
	TimeNs    float64 `yaml:"time_ns"`
	Worker    int     `yaml:"worker,omitempty"`
}

// appendProfileCacheLog appends one YAML document per measured cell to
// <dir>/worker-log.yaml. This is deliberately not a cache format — just a
// minimal append-only index a future run could replay for diagnostics.
func appendProfileCacheLog(dir string, worker int, result *kstat.KStat) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("profile-cache: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "worker-log.yaml"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("profile-cache: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()
	for _, kernel := range result.Kernels() {
		for _, e := range result.Entries(kernel) {
			entry := profileCacheEntry{
				Kernel:    kernel,
				LayoutKey: e.Layouts.Key(),
				TimeNs:    e.TimeNs,
				Worker:    worker,
			}
			if err := enc.Encode(entry); err != nil {
				return fmt.Errorf("profile-cache: %w", err)
			}
		}
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty,
// matching every subcommand's "--output PATH" flag.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
