package profiler

import (
	"os"
	"runtime"
	"strconv"
)

// Config carries the profiler's run parameters. Times, WorkerNum,
// CheckPeriod, ProfileCache and Debug have environment-variable defaults,
// applied by ConfigFromEnv (Driver and Options have none); FromFlags-style
// callers (the CLI) may override individual fields after loading defaults.
type Config struct {
	Times        int
	WorkerNum    int
	CheckPeriod  float64 // seconds; unused by the in-process driver, kept for parity with the CLI surface
	Driver       string
	ProfileCache string
	Options      CompileOptions
	Debug        bool
}

// ConfigFromEnv populates a Config from FLUIDML_* environment variables,
// falling back to the defaults below.
func ConfigFromEnv() Config {
	cfg := Config{
		Times:       envInt("FLUIDML_TIME", 50),
		WorkerNum:   envInt("FLUIDML_WORKER_NUM", runtime.NumCPU()),
		CheckPeriod: envFloat("FLUIDML_CHECK_PERIOD", 5.0),
		ProfileCache: os.Getenv("FLUIDML_PROFILE_CACHE"),
		Debug:        os.Getenv("FLUIDML_DEBUG") == "1",
	}
	return cfg
}

func envInt(name string, fallback int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(name string, fallback float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
