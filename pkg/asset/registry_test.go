package asset

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryTryClaim(t *testing.T) {
	r := NewRegistry()
	h := HashBytes([]byte("asset"))

	if !r.TryClaim(h) {
		t.Fatal("first claim should succeed")
	}
	if r.TryClaim(h) {
		t.Fatal("second claim of the same hash should fail")
	}
	if !r.TryClaim(HashBytes([]byte("other"))) {
		t.Fatal("claim of a different hash should succeed")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

// TestRegistryTryClaim_Concurrent verifies the claim is atomic: many
// goroutines racing on the same hash yield exactly one winner.
func TestRegistryTryClaim_Concurrent(t *testing.T) {
	r := NewRegistry()
	h := HashBytes([]byte("contended"))

	const goroutines = 64
	var wins atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryClaim(h) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly 1 successful claim, got %d", wins.Load())
	}
}
