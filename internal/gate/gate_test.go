package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGateWaitRetriesUntilReady(t *testing.T) {
	var mu sync.Mutex
	g := New(&mu)

	ready := false
	done := make(chan struct{})
	go func() {
		g.Wait(func() bool { return ready })
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before ready became true")
	case <-time.After(20 * time.Millisecond):
	}

	mu.Lock()
	ready = true
	mu.Unlock()
	g.Signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe Signal")
	}
}

func TestGateBroadcastWakesAll(t *testing.T) {
	var mu sync.Mutex
	g := New(&mu)

	const waiters = 8
	ready := false
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			g.Wait(func() bool { return ready })
		}()
	}

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	ready = true
	mu.Unlock()
	g.Broadcast()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Broadcast did not wake all waiters")
	}
}

func TestGateSharedLockerWakesBothGates(t *testing.T) {
	var mu sync.Mutex
	g1 := New(&mu)
	g2 := New(&mu)

	var order []string
	var orderMu sync.Mutex
	record := func(s string) {
		orderMu.Lock()
		order = append(order, s)
		orderMu.Unlock()
	}

	readyA, readyB := false, false
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g1.Wait(func() bool { return readyA })
		record("g1")
	}()
	go func() {
		defer wg.Done()
		g2.Wait(func() bool { return readyB })
		record("g2")
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	readyA, readyB = true, true
	mu.Unlock()
	g1.Signal()
	g2.Signal()
	wg.Wait()

	require.ElementsMatch(t, []string{"g1", "g2"}, order)
}
