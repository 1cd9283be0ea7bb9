package loadgen_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/slon/upgrademutex"
	"github.com/slon/upgrademutex/loadgen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunRejectsMixWithoutPositiveWeight(t *testing.T) {
	mu := upgrademutex.New()
	_, err := loadgen.Run(context.Background(), loadgen.Config{
		Mutex:      mu,
		Iterations: 1,
		Mix:        loadgen.Mix{upgrademutex.ModeShared: 0},
	})
	require.ErrorIs(t, err, loadgen.ErrInvalidMix)
}

func TestRunDefaultMixCoversAllModes(t *testing.T) {
	mu := upgrademutex.New()
	stats, err := loadgen.Run(context.Background(), loadgen.Config{
		Mutex:      mu,
		Workers:    3,
		Iterations: 6,
	})
	require.NoError(t, err)
	require.Positive(t, stats.Acquired[upgrademutex.ModeShared])
	require.Positive(t, stats.Acquired[upgrademutex.ModeUpgrade])
	require.Positive(t, stats.Acquired[upgrademutex.ModeExclusive])

	total := stats.Acquired[upgrademutex.ModeShared] + stats.Acquired[upgrademutex.ModeUpgrade] + stats.Acquired[upgrademutex.ModeExclusive]
	require.Equal(t, 3*6, total)
}

func TestRunRestrictsToConfiguredModes(t *testing.T) {
	mu := upgrademutex.New()
	stats, err := loadgen.Run(context.Background(), loadgen.Config{
		Mutex:      mu,
		Workers:    2,
		Iterations: 4,
		Mix:        loadgen.Mix{upgrademutex.ModeShared: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 8, stats.Acquired[upgrademutex.ModeShared])
	require.Zero(t, stats.Acquired[upgrademutex.ModeUpgrade])
	require.Zero(t, stats.Acquired[upgrademutex.ModeExclusive])
}

func TestRunHonorsFakeClockThinkTime(t *testing.T) {
	mu := upgrademutex.New()
	clock := clockwork.NewFakeClock()

	done := make(chan struct{})
	go func() {
		_, err := loadgen.Run(context.Background(), loadgen.Config{
			Mutex:      mu,
			Workers:    1,
			Iterations: 1,
			ThinkTime:  time.Second,
			Mix:        loadgen.Mix{upgrademutex.ModeExclusive: 1},
			Clock:      clock,
		})
		require.NoError(t, err)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	<-done
}

func TestRunCancelsOnContext(t *testing.T) {
	mu := upgrademutex.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loadgen.Run(ctx, loadgen.Config{
		Mutex:      mu,
		Workers:    1,
		Iterations: 1000,
		Mix:        loadgen.Mix{upgrademutex.ModeShared: 1},
	})
	require.ErrorIs(t, err, context.Canceled)
}
