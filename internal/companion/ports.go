package companion

import (
	"context"

	"sensai/internal/models"
	"sensai/internal/narration"
)

// Identity supplies the user the companion persists for. ready is false
// while the user is unknown; nothing is persisted then.
type Identity interface {
	User(ctx context.Context) (userID string, ready bool)
}

// StaticIdentity is an Identity that is always ready.
type StaticIdentity string

func (s StaticIdentity) User(context.Context) (string, bool) {
	return string(s), s != ""
}

// SessionStore is the per-user session document.
type SessionStore interface {
	Append(ctx context.Context, userID string, s models.SessionData) error
	Reset(ctx context.Context, userID string) error
	// Subscribe calls fn with the full session list now and after every
	// change until the returned func is called.
	Subscribe(ctx context.Context, userID string, fn func([]models.SessionData)) (func(), error)
}

// Narrator speaks entry lines and interventions.
type Narrator interface {
	Speak(ctx context.Context, text string) bool
	Stop()
	Status() narration.Status
}

// Device sets the sauna's target temperature.
type Device interface {
	SetTarget(ctx context.Context, celsius int) error
}

// Journal records notable companion events.
type Journal interface {
	Record(ctx context.Context, typ, description string, meta map[string]any)
}
