package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certkeeper/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		fut := async.Exec(context.Background(), 21, func(ctx context.Context, n int) error {
			if n != 21 {
				return errors.New("wrong param")
			}
			return nil
		})
		require.NoError(t, fut.Await())
		assert.True(t, fut.IsComplete())
	})

	t.Run("error propagates", func(t *testing.T) {
		t.Parallel()

		want := errors.New("boom")
		fut := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
			return want
		})
		require.ErrorIs(t, fut.Await(), want)
	})

	t.Run("pre-canceled context skips the function", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var ran atomic.Bool
		fut := async.Exec(ctx, struct{}{}, func(context.Context, struct{}) error {
			ran.Store(true)
			return nil
		})
		require.ErrorIs(t, fut.Await(), context.Canceled)
		assert.False(t, ran.Load())
	})
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	fut := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
		<-block
		return nil
	})
	t.Cleanup(func() { close(block) })

	require.ErrorIs(t, fut.AwaitWithTimeout(10*time.Millisecond), async.ErrTimeout)
}

func TestJoinAll(t *testing.T) {
	t.Parallel()

	t.Run("all succeed", func(t *testing.T) {
		t.Parallel()

		f1 := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error { return nil })
		f2 := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error { return nil })
		require.NoError(t, async.JoinAll(f1, f2))
	})

	t.Run("aggregates every error and waits for all", func(t *testing.T) {
		t.Parallel()

		err1 := errors.New("first")
		err2 := errors.New("second")
		var slowFinished atomic.Bool

		f1 := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error { return err1 })
		f2 := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
			time.Sleep(20 * time.Millisecond)
			slowFinished.Store(true)
			return err2
		})
		f3 := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error { return nil })

		err := async.JoinAll(f1, f2, f3)
		require.Error(t, err)
		assert.ErrorIs(t, err, err1)
		assert.ErrorIs(t, err, err2)
		assert.True(t, slowFinished.Load())
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, async.JoinAll())
	})
}

func TestJoinAny(t *testing.T) {
	t.Parallel()

	t.Run("returns the first completed future", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		slow := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
			<-block
			return nil
		})
		t.Cleanup(func() { close(block) })

		want := errors.New("fast")
		fast := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
			return want
		})

		idx, err := async.JoinAny(slow, fast)
		assert.Equal(t, 1, idx)
		require.ErrorIs(t, err, want)
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()

		idx, err := async.JoinAny()
		assert.Equal(t, -1, idx)
		require.ErrorIs(t, err, async.ErrNoFutures)
	})
}
