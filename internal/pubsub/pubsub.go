// Package pubsub signals that a user's session document changed so that
// subscribers reload it.
package pubsub

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"

	"sensai/internal/logger"
)

// Notifier fans out change signals per user.
// Subscribe returns a channel that receives one value per change (coalesced
// when the reader is slow) and a cancel func that closes it.
type Notifier interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (<-chan struct{}, func())
}

// Local is an in-process Notifier.
type Local struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]chan struct{})}
}

func (l *Local) Publish(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[userID] {
		signal(ch)
	}
	return nil
}

func (l *Local) Subscribe(_ context.Context, userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	l.mu.Lock()
	id := l.next
	l.next++
	if l.subs[userID] == nil {
		l.subs[userID] = make(map[int]chan struct{})
	}
	l.subs[userID][id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs[userID], id)
			if len(l.subs[userID]) == 0 {
				delete(l.subs, userID)
			}
			l.mu.Unlock()
			close(ch)
		})
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Redis publishes change signals on a redis channel per user, so every
// process serving the user reloads.
type Redis struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

func NewRedis(client *redis.Client, prefix string, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.Nop()
	}
	return &Redis{client: client, prefix: prefix, log: log}
}

func (r *Redis) channel(userID string) string {
	return r.prefix + "sessions:" + userID
}

func (r *Redis) Publish(ctx context.Context, userID string) error {
	return r.client.Publish(ctx, r.channel(userID), "changed").Err()
}

func (r *Redis) Subscribe(ctx context.Context, userID string) (<-chan struct{}, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ps := r.client.Subscribe(ctx, r.channel(userID))
	out := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(out)
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			cancel()
			if err := ps.Close(); err != nil {
				r.log.Warnw("pubsub_close_failed", "user_id", userID, "err", err)
			}
			<-done
		})
	}
}
