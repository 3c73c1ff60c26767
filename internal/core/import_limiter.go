package core

// import_limiter.go bounds how many commits write to the database at once.
// A commit waits up to maxWait for a slot and then fails with
// ErrTooManyImports. Drain blocks shutdown until running commits finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyImports is returned when every commit slot stayed busy for the
// whole wait time.
var ErrTooManyImports = errors.New("too many imports in progress")

const (
	DefaultMaxConcurrentImports = 5
	DefaultMaxWaitTime          = 30 * time.Second
)

// ImportLimiter is a counting semaphore over commit slots.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewImportLimiter allows maxConcurrent commits at once. Non-positive
// arguments fall back to the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyImports
	}
}

// Release frees a slot taken by Acquire.
func (l *ImportLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *ImportLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// Drain waits until no commit holds a slot.
func (l *ImportLimiter) Drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is the limiter state reported by the health endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

func (l *ImportLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
