package narration

import (
	"context"
	"sync"

	"sensai/internal/logger"
)

// Status is the observable state of a Gate.
type Status struct {
	Enabled    bool `json:"enabled"`
	Interacted bool `json:"interacted"`
	Speaking   bool `json:"speaking"`
}

// Gate decides whether an utterance may be spoken. Speech requires that
// narration is enabled, that the user has interacted at least once and that
// nothing else is being spoken. Requests that fail a precondition are dropped.
type Gate struct {
	synth  Synthesizer
	player Player
	log    *logger.Logger

	mu       sync.Mutex
	status   Status
	onChange func(Status)
}

func NewGate(synth Synthesizer, player Player, enabled bool, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{synth: synth, player: player, log: log, status: Status{Enabled: enabled}}
}

// OnChange registers a callback run after every status change.
func (g *Gate) OnChange(fn func(Status)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// SetEnabled toggles narration. Disabling stops the current clip.
func (g *Gate) SetEnabled(enabled bool) {
	g.update(func(s *Status) { s.Enabled = enabled })
	if !enabled {
		g.player.Stop()
	}
}

// MarkInteracted records the first user interaction.
func (g *Gate) MarkInteracted() {
	g.update(func(s *Status) { s.Interacted = true })
}

// Stop ends current playback. The speaking flag clears when Speak returns.
func (g *Gate) Stop() {
	g.player.Stop()
}

// Speak synthesizes and plays text. It blocks until playback ends and
// reports whether the utterance was accepted. Cancelling ctx does not abort
// synthesis; a clip that arrives after ctx is done is discarded.
func (g *Gate) Speak(ctx context.Context, text string) bool {
	if text == "" || !g.acquire() {
		return false
	}
	defer g.update(func(s *Status) { s.Speaking = false })

	clip, err := g.synth.Synthesize(context.WithoutCancel(ctx), text)
	if err != nil {
		g.log.Warnw("narration_failed", "err", err)
		return true
	}
	if ctx.Err() != nil {
		g.log.Debugw("narration_stale_clip_dropped")
		return true
	}
	if err := g.player.Play(ctx, clip); err != nil {
		g.log.Warnw("narration_playback_failed", "err", err)
	}
	return true
}

func (g *Gate) acquire() bool {
	g.mu.Lock()
	s := g.status
	if !s.Enabled || !s.Interacted || s.Speaking {
		g.mu.Unlock()
		return false
	}
	g.status.Speaking = true
	fn, st := g.onChange, g.status
	g.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	return true
}

func (g *Gate) update(mut func(*Status)) {
	g.mu.Lock()
	before := g.status
	mut(&g.status)
	fn, st := g.onChange, g.status
	g.mu.Unlock()
	if fn != nil && st != before {
		fn(st)
	}
}
