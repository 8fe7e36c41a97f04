package affinity

import "testing"

func TestNumCPUPositive(t *testing.T) {
	if NumCPU() <= 0 {
		t.Fatalf("NumCPU() = %d, want > 0", NumCPU())
	}
}

func TestPinCPUZeroSucceeds(t *testing.T) {
	if err := Pin(0); err != nil {
		t.Fatalf("Pin(0): %v", err)
	}
}
