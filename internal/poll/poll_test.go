package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoop(interval time.Duration) Loop {
	return Loop{
		Name:     "test",
		Interval: interval,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRun_StopsWhenDone(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := testLoop(time.Millisecond).Run(context.Background(), func(context.Context) (bool, error) {
		return calls.Add(1) == 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_ContinuesAfterErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := testLoop(time.Millisecond).Run(context.Background(), func(context.Context) (bool, error) {
		n := calls.Add(1)
		if n < 3 {
			return false, errors.New("upstream down")
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	err := testLoop(time.Hour).Run(ctx, func(context.Context) (bool, error) {
		calls.Add(1)
		cancel()
		return false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_WaitsForInterval(t *testing.T) {
	t.Parallel()

	var starts []time.Time
	interval := 30 * time.Millisecond
	err := testLoop(interval).Run(context.Background(), func(context.Context) (bool, error) {
		starts = append(starts, time.Now())
		return len(starts) == 2, nil
	})

	require.NoError(t, err)
	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), interval)
}

func TestRun_SlowIterationsAreNotStretched(t *testing.T) {
	t.Parallel()

	var starts []time.Time
	slow := 40 * time.Millisecond
	err := testLoop(10*time.Millisecond).Run(context.Background(), func(context.Context) (bool, error) {
		starts = append(starts, time.Now())
		time.Sleep(slow)
		return len(starts) == 2, nil
	})

	require.NoError(t, err)
	// The interval elapsed during the iteration, so the next one starts right away.
	gap := starts[1].Sub(starts[0])
	assert.GreaterOrEqual(t, gap, slow)
	assert.Less(t, gap, 2*slow)
}
