package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certkeeper/pkg/clock"
)

func TestSystemSleep(t *testing.T) {
	t.Parallel()

	t.Run("returns after duration", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		err := clock.System().Sleep(context.Background(), 10*time.Millisecond)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("canceled context aborts sleep", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := clock.System().Sleep(ctx, time.Hour)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-positive duration returns immediately", func(t *testing.T) {
		t.Parallel()

		err := clock.System().Sleep(context.Background(), 0)
		require.NoError(t, err)
	})
}

func TestManual(t *testing.T) {
	t.Parallel()

	t.Run("sleep records duration and advances now", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clk := clock.NewManual(start)

		require.NoError(t, clk.Sleep(context.Background(), 2*time.Second))
		require.NoError(t, clk.Sleep(context.Background(), 3*time.Second))

		assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, clk.Sleeps())
		assert.Equal(t, start.Add(5*time.Second), clk.Now())
	})

	t.Run("advance moves now without recording a sleep", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clk := clock.NewManual(start)
		clk.Advance(time.Hour)

		assert.Equal(t, start.Add(time.Hour), clk.Now())
		assert.Empty(t, clk.Sleeps())
	})

	t.Run("sleep honors canceled context", func(t *testing.T) {
		t.Parallel()

		clk := clock.NewManual(time.Now())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, clk.Sleep(ctx, time.Second), context.Canceled)
		assert.Empty(t, clk.Sleeps())
	})
}
