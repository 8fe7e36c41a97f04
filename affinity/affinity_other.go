//go:build !linux

package affinity

import "runtime"

// Pin is a no-op outside Linux: sched_setaffinity has no portable
// equivalent, and the worker pool degrades to unpinned scheduling rather
// than failing — affinity is a best-effort hint, not a correctness
// requirement.
func Pin(cpu int) error { return nil }

// NumCPU reports the number of CPUs available.
func NumCPU() int { return runtime.NumCPU() }
