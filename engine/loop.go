// Package engine drives the sequencer at a fixed poll rate.
package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/robmorgan/euclid/logger"
	"k8s.io/utils/clock"
)

// Loop calls onUpdate every interval until its context is done. The update runs on the loop's
// goroutine, which is locked to its OS thread to keep poll jitter low.
type Loop struct {
	clock    clock.WithTicker
	interval time.Duration
	onUpdate func(now time.Time)
}

// New creates a loop.
func New(clk clock.WithTicker, interval time.Duration, onUpdate func(now time.Time)) *Loop {
	return &Loop{
		clock:    clk,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Interval returns the poll interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run blocks, polling until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	log := logger.GetProjectLogger()
	log.WithField("interval", l.interval).Info("Loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Loop stopped")
			return ctx.Err()
		case now := <-ticker.C():
			l.onUpdate(now)
		}
	}
}
