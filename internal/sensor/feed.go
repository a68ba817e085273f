// Package sensor produces temperature and humidity samples for an active
// sauna session, either simulated or polled from the sauna controller.
package sensor

import (
	"context"
	"sync"
	"time"

	"sensai/internal/models"
)

// StopFunc ends a running feed. It is idempotent and returns once the feed
// goroutine has exited, so no sample is delivered after it returns.
type StopFunc func()

// Feed starts a sample stream for a session of the given length.
// onSample runs on the feed goroutine; it must not block on whoever calls
// the returned StopFunc.
type Feed interface {
	Start(ctx context.Context, minutes, targetTemp int, onSample func(models.SensorRecord)) StopFunc
}

// FeedFunc adapts a function to Feed.
type FeedFunc func(ctx context.Context, minutes, targetTemp int, onSample func(models.SensorRecord)) StopFunc

func (f FeedFunc) Start(ctx context.Context, minutes, targetTemp int, onSample func(models.SensorRecord)) StopFunc {
	return f(ctx, minutes, targetTemp, onSample)
}

// runTicker calls step on every tick until ctx is done or the returned
// StopFunc is called.
func runTicker(ctx context.Context, tick time.Duration, step func(ctx context.Context, now time.Time)) StopFunc {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				if ctx.Err() != nil {
					return
				}
				step(ctx, now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
