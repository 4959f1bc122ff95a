package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch executes a handler function asynchronously with panic recovery.
// The handler runs on a background context that keeps the caller's logger, so
// it outlives the request that started it.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		runSafe(newCtx, "async handler", handler)
	}()
}

// Every runs handler immediately and then once per interval until ctx is
// done. Runs never overlap; a failing or panicking run is logged and the
// schedule continues. Every blocks, so callers usually start it in a
// goroutine.
func Every(ctx context.Context, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		ctxlog.From(ctx).Warn("Periodic job disabled by non-positive interval", "interval", interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		runSafe(ctx, "periodic job", handler)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runSafe(ctx context.Context, name string, handler func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.From(ctx).Error("Panic in "+name,
				"recover", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := handler(ctx); err != nil {
		ctxlog.From(ctx).Error("Error in "+name, "error", err)
	}
}

// newBackgroundContext creates a new background context preserving the logger
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()

	if logger := ctxlog.From(ctx); logger != nil {
		newCtx = ctxlog.With(newCtx, logger)
	}

	return newCtx
}
