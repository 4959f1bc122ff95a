package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/utils/async"
)

func waitOrFail(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("handlers did not complete within timeout")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("runs handler in background", func(t *testing.T) {
		var wg sync.WaitGroup
		var called atomic.Bool

		wg.Add(1)
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			called.Store(true)
			return nil
		})

		waitOrFail(t, &wg, time.Second)
		gt.True(t, called.Load())
	})

	t.Run("survives errors and panics", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			return errors.New("fetch failed")
		})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			panic("boom")
		})
		waitOrFail(t, &wg, time.Second)
	})

	t.Run("outlives canceled parent context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		ctx = ctxlog.With(ctx, ctxlog.From(context.Background()))

		var wg sync.WaitGroup
		var handlerErr error

		wg.Add(1)
		async.Dispatch(ctx, func(ctx context.Context) error {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			handlerErr = ctx.Err()
			return nil
		})
		cancel()

		waitOrFail(t, &wg, time.Second)
		gt.NoError(t, handlerErr)
	})
}

func TestEvery(t *testing.T) {
	t.Run("runs immediately and repeats until canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var count atomic.Int32

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			async.Every(ctx, 10*time.Millisecond, func(ctx context.Context) error {
				if count.Add(1) >= 3 {
					cancel()
				}
				return nil
			})
		}()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("Every did not stop after cancel")
		}
		gt.True(t, count.Load() >= 3)
	})

	t.Run("keeps running after failure and panic", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var count atomic.Int32

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			async.Every(ctx, 5*time.Millisecond, func(ctx context.Context) error {
				switch count.Add(1) {
				case 1:
					return errors.New("upstream down")
				case 2:
					panic("unexpected")
				default:
					cancel()
					return nil
				}
			})
		}()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("Every did not recover from failures")
		}
		gt.Equal(t, count.Load(), int32(3))
	})

	t.Run("non-positive interval does nothing", func(t *testing.T) {
		var called atomic.Bool
		async.Every(context.Background(), 0, func(ctx context.Context) error {
			called.Store(true)
			return nil
		})
		gt.False(t, called.Load())
	})
}
