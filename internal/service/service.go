package service

import (
	"context"
	"io"

	"sensai"
	"sensai/internal/companion"
	"sensai/internal/logger"
	"sensai/internal/models"
	"sensai/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	// SignInAnonymously creates a throwaway account and returns its token.
	SignInAnonymously() (string, error)
	ParseToken(accessToken string) (int, error)
}

// Companion exposes each user's companion runtime.
type Companion interface {
	State(ctx context.Context, userID int) (companion.Snapshot, error)
	Dispatch(ctx context.Context, userID int, ev companion.Event) (companion.Snapshot, error)
	MarkInteracted(ctx context.Context, userID int) (companion.Snapshot, error)
	SetNarration(ctx context.Context, userID int, enabled bool) (companion.Snapshot, error)
	// Stream delivers state and audio frames until cancel is called.
	Stream(ctx context.Context, userID int) (frames <-chan sensai.Frame, cancel func(), err error)
}

// History is read access to persisted sessions.
type History interface {
	Sessions(ctx context.Context, userID int) ([]models.SessionData, error)
	Stats(ctx context.Context, userID int) (models.Stats, error)
	Export(ctx context.Context, userID int, w io.Writer) error
	Preview(ctx context.Context, in models.SessionData) sensai.PreviewResponse
}

// EventLog exposes the companion journal with filtering access.
type EventLog interface {
	List(ctx context.Context, userID int, f LogFilter) ([]models.CompanionEvent, error)
}

type Service struct {
	Authorization
	Companion
	History
	EventLog
}

// NewService wires the repository layer and the runtime dependencies into
// concrete services. The returned closer stops every companion runtime.
func NewService(repos *repository.Repository, deps Deps, log *logger.Logger) (*Service, func()) {
	if log == nil {
		log = logger.Nop()
	}
	sessions := NewSessionStore(repos.Sessions, deps.Notifier, log.Named("sessions"))
	journal := NewEventLogService(repos.EventRepo, log.Named("journal"))
	manager := NewCompanionManager(deps, sessions, journal, NewUserIdentity(repos.Auth), log.Named("companion"))

	return &Service{
		Authorization: NewAuthService(repos.Auth, deps.Auth),
		Companion:     manager,
		History:       NewHistoryService(sessions, deps.Advisor),
		EventLog:      journal,
	}, manager.Close
}
