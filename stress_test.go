package upgrademutex

import (
	"sync"
	"testing"
)

// TestStressMixedModes drives a large number of goroutines through random
// mixes of shared, upgrade, and exclusive acquisitions against a shared
// counter, mirroring the grounding fixture's approach of proving atomic
// read-modify-write under contention rather than merely absence of
// crashes.
func TestStressMixedModes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	m := New()
	var counter int

	incrementExclusive := func() {
		x := AcquireExclusive(m)
		counter++
		x.Unlock()
	}
	incrementViaPromotion := func() {
		u := AcquireUpgrade(m)
		promo := BeginScopedPromotion(&u)
		counter++
		promo.End()
		u.Unlock()
	}
	readOnly := func() {
		s := AcquireShared(m)
		_ = counter
		s.Unlock()
	}

	const n = 2000
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(n * 3)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-start
			incrementExclusive()
		}()
		go func() {
			defer wg.Done()
			<-start
			incrementViaPromotion()
		}()
		go func() {
			defer wg.Done()
			<-start
			readOnly()
		}()
	}
	close(start)
	wg.Wait()

	if counter != n*2 {
		t.Fatalf("counter = %d, want %d", counter, n*2)
	}
}
