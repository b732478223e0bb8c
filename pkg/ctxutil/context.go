package ctxutil

import (
	"context"
	"time"
)

type key string

var cancelkey = key("cancel")

// TimeoutContext provides a context cancelled after the given duration.
// Without positive duration the context is only cancelled by Cancel.
func TimeoutContext(ctx context.Context, duration time.Duration) context.Context {
	if duration <= 0 {
		return cancelContext(context.WithCancel(ctx))
	}
	return cancelContext(context.WithTimeout(ctx, duration))
}

func cancelContext(ctx context.Context, cancel context.CancelFunc) context.Context {
	return context.WithValue(ctx, cancelkey, cancel)
}

// Cancel cancels a context created by TimeoutContext.
// Other contexts are left untouched.
func Cancel(ctx context.Context) {
	if c, ok := ctx.Value(cancelkey).(context.CancelFunc); ok {
		c()
	}
}
