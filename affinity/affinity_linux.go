//go:build linux

// Package affinity pins the calling OS thread to a fixed CPU set, so each
// worker's compile/measure pair runs on a dedicated core and wall-clock
// measurements aren't skewed by scheduler migration.
package affinity

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and restricts
// that thread to cpu. Callers must hold the goroutine for the duration of
// the work they want pinned; Pin never unlocks the thread itself (the
// worker that called it owns that thread until it exits).
func Pin(cpu int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin to cpu %d: %w", cpu, err)
	}
	logrus.Debugf("affinity: pinned worker thread to cpu %d", cpu)
	return nil
}

// NumCPU reports the number of CPUs available for pinning.
func NumCPU() int { return runtime.NumCPU() }
