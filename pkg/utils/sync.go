package utils

import (
	"context"
	"sync"
)

// Sync can be used to wait for a one-time condition.
type Sync interface {
	// Wait blocks until the condition is reached or the context is done.
	// It reports whether the condition has been reached.
	Wait(ctx context.Context) bool
	IsDone() bool
}

// SyncTrigger signals the condition. Calling Done more than once is allowed.
type SyncTrigger interface {
	Done()
}

type syncPoint struct {
	once  sync.Once
	state chan struct{}
}

func NewSyncPoint() (Sync, SyncTrigger) {
	s := &syncPoint{
		state: make(chan struct{}),
	}
	return s, s
}

func (s *syncPoint) Wait(ctx context.Context) bool {
	select {
	case <-s.state:
		return true
	case <-ctx.Done():
		return s.IsDone()
	}
}

func (s *syncPoint) IsDone() bool {
	select {
	case <-s.state:
		return true
	default:
		return false
	}
}

func (s *syncPoint) Done() {
	s.once.Do(func() { close(s.state) })
}
