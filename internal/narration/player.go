package narration

import (
	"context"
	"sync"
	"time"
)

// ClipSink is where clips are played, for a server the client connections
// of one user.
type ClipSink interface {
	PlayClip(ctx context.Context, clip Clip) error
	StopClip()
}

// Player owns the playback slot.
type Player interface {
	Play(ctx context.Context, clip Clip) error
	Stop()
}

// SlotPlayer has a single playback slot: a new clip replaces the current one
// and there is no queue. Play holds the slot for the clip's duration.
type SlotPlayer struct {
	sink ClipSink

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSlotPlayer(sink ClipSink) *SlotPlayer {
	return &SlotPlayer{sink: sink}
}

// Play delivers the clip and blocks until it has finished, was replaced or
// stopped, or ctx is done.
func (p *SlotPlayer) Play(ctx context.Context, clip Clip) error {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.sink.StopClip()
	}
	p.seq++
	id := p.seq
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.seq == id {
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
	}()

	if err := p.sink.PlayClip(ctx, clip); err != nil {
		return err
	}
	if clip.Duration <= 0 {
		return nil
	}
	t := time.NewTimer(clip.Duration)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return nil
}

// Stop ends the current clip, if any.
func (p *SlotPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.sink.StopClip()
}

// Playing reports whether a clip holds the slot.
func (p *SlotPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
