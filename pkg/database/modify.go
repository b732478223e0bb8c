package database

import (
	"context"
	"time"
)

// DefaultRetries is the number of attempts used by Retry
// if no explicit count is given.
const DefaultRetries = 5

// Retry executes an operation and repeats it as long as it fails
// because of a concurrent modification (ErrModified or ErrPathCollision).
// The operation must work on up-to-date state on every call, for example
// by running a complete transaction.
func Retry(ctx context.Context, f func() error, attempts ...int) error {
	n := DefaultRetries
	if len(attempts) > 0 && attempts[0] > 0 {
		n = attempts[0]
	}
	delay := 10 * time.Millisecond
	for i := 1; ; i++ {
		err := f()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if i >= n {
			log.Info("giving up after {{attempts}} attempts: {{error}}", "attempts", i, "error", err)
			return err
		}
		log.Debug("retrying after concurrent modification: {{error}}", "error", err, "attempt", i)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// RetryValue is Retry for operations returning a value.
func RetryValue[T any](ctx context.Context, f func() (T, error), attempts ...int) (T, error) {
	var result T
	err := Retry(ctx, func() error {
		var err error
		result, err = f()
		return err
	}, attempts...)
	return result, err
}
