// Package loadgen drives a configurable mix of shared, upgrade and
// exclusive acquisitions against a upgrademutex.Mutex, for manual
// soak-testing and for demonstrating the primitive's contract under
// concurrent load. It makes no timing claims about the primitive itself;
// it is a workload generator, not a benchmark.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/slon/upgrademutex"
)

// ErrInvalidMix is returned by Run when a Config's Mix is non-empty but
// none of its entries has a positive weight. An empty Mix is not rejected;
// it falls back to the default equal split.
var ErrInvalidMix = errors.New("loadgen: mix has no positive weight entries")

// Mix is the relative frequency of each access mode a worker should
// request. A zero or negative weight excludes that mode entirely.
type Mix map[upgrademutex.Mode]int

// Config parameterizes Run.
type Config struct {
	// Mutex is locked by every worker. Must be non-nil.
	Mutex *upgrademutex.Mutex
	// Workers is the number of concurrent goroutines issuing
	// acquire/release cycles. Defaults to 1 if zero.
	Workers int
	// Iterations is how many acquire/release cycles each worker performs.
	Iterations int
	// ThinkTime is how long a worker holds the lock before releasing it.
	// Zero means no pause.
	ThinkTime time.Duration
	// Mix selects which mode each cycle requests. An empty Mix defaults
	// to an equal split of all three modes.
	Mix Mix
	// Clock paces ThinkTime. Defaults to clockwork.NewRealClock().
	Clock clockwork.Clock
}

// Stats summarizes a completed Run.
type Stats struct {
	Acquired map[upgrademutex.Mode]int
}

// weightedTable expands a Mix into a flat, deterministically ordered slice
// of modes so a worker can pick one with a single cheap index operation.
func weightedTable(mix Mix) []upgrademutex.Mode {
	if len(mix) == 0 {
		mix = Mix{
			upgrademutex.ModeShared:    1,
			upgrademutex.ModeUpgrade:   1,
			upgrademutex.ModeExclusive: 1,
		}
	}
	modes := maps.Keys(mix)
	slices.Sort(modes)

	var table []upgrademutex.Mode
	for _, mode := range modes {
		w := mix[mode]
		if w <= 0 {
			continue
		}
		for i := 0; i < w; i++ {
			table = append(table, mode)
		}
	}
	return table
}

// Run drives cfg.Workers goroutines, each performing cfg.Iterations
// acquire/release cycles against cfg.Mutex according to cfg.Mix, until
// ctx is canceled or every worker finishes. It returns ErrInvalidMix
// without starting any worker if cfg.Mix resolves to no eligible modes.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	if cfg.Mutex == nil {
		return Stats{}, fmt.Errorf("loadgen: Config.Mutex must not be nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	table := weightedTable(cfg.Mix)
	if len(table) == 0 {
		return Stats{}, ErrInvalidMix
	}

	counts := make([]map[upgrademutex.Mode]int, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		counts[w] = make(map[upgrademutex.Mode]int)
		g.Go(func() error {
			return runWorker(ctx, cfg, clock, table, counts[w])
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	total := make(map[upgrademutex.Mode]int)
	for _, c := range counts {
		for mode, n := range c {
			total[mode] += n
		}
	}
	return Stats{Acquired: total}, nil
}

func runWorker(ctx context.Context, cfg Config, clock clockwork.Clock, table []upgrademutex.Mode, counts map[upgrademutex.Mode]int) error {
	for i := 0; i < cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		mode := table[i%len(table)]
		if err := acquireOnce(cfg.Mutex, mode, cfg.ThinkTime, clock); err != nil {
			return err
		}
		counts[mode]++
	}
	return nil
}

func acquireOnce(mu *upgrademutex.Mutex, mode upgrademutex.Mode, think time.Duration, clock clockwork.Clock) error {
	switch mode {
	case upgrademutex.ModeShared:
		h := upgrademutex.AcquireShared(mu)
		if think > 0 {
			clock.Sleep(think)
		}
		h.Unlock()
	case upgrademutex.ModeUpgrade:
		h := upgrademutex.AcquireUpgrade(mu)
		if think > 0 {
			clock.Sleep(think)
		}
		h.Unlock()
	case upgrademutex.ModeExclusive:
		h := upgrademutex.AcquireExclusive(mu)
		if think > 0 {
			clock.Sleep(think)
		}
		h.Unlock()
	default:
		return fmt.Errorf("loadgen: unknown mode %v", mode)
	}
	return nil
}
