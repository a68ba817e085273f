package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"sensai/internal/companion"
	"sensai/internal/logger"
	"sensai/internal/models"
	"sensai/internal/pubsub"
	"sensai/internal/repository"
)

// SessionStore is the companion's view of a user's session document.
// Every write is announced on the notifier so all subscribers reload.
type SessionStore struct {
	repo     repository.SessionRepo
	notifier pubsub.Notifier
	log      *logger.Logger
}

var _ companion.SessionStore = (*SessionStore)(nil)

func NewSessionStore(repo repository.SessionRepo, notifier pubsub.Notifier, log *logger.Logger) *SessionStore {
	if notifier == nil {
		notifier = pubsub.NewLocal()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionStore{repo: repo, notifier: notifier, log: log}
}

// Append adds s to the user's document, creating the document when it does
// not exist yet.
func (s *SessionStore) Append(ctx context.Context, userID string, sess models.SessionData) error {
	err := s.repo.Append(ctx, userID, sess)
	if errors.Is(err, repository.ErrDocNotFound) {
		err = s.repo.Create(ctx, userID, []models.SessionData{sess})
	}
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	s.notify(ctx, userID)
	return nil
}

// Reset empties the user's document.
func (s *SessionStore) Reset(ctx context.Context, userID string) error {
	if err := s.repo.Reset(ctx, userID); err != nil {
		return err
	}
	s.notify(ctx, userID)
	return nil
}

// Load returns the user's sessions.
func (s *SessionStore) Load(ctx context.Context, userID string) ([]models.SessionData, error) {
	return s.repo.Load(ctx, userID)
}

// Subscribe calls fn with the current list and again after each change.
func (s *SessionStore) Subscribe(ctx context.Context, userID string, fn func([]models.SessionData)) (func(), error) {
	changes, unsubscribe := s.notifier.Subscribe(ctx, userID)

	sessions, err := s.repo.Load(ctx, userID)
	if err != nil {
		unsubscribe()
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	fn(sessions)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				list, err := s.repo.Load(ctx, userID)
				if err != nil {
					s.log.Warnw("session_reload_failed", "user_id", userID, "err", err)
					continue
				}
				fn(list)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			unsubscribe()
			<-done
		})
	}, nil
}

func (s *SessionStore) notify(ctx context.Context, userID string) {
	if err := s.notifier.Publish(ctx, userID); err != nil {
		s.log.Warnw("session_notify_failed", "user_id", userID, "err", err)
	}
}

// userIdentity is ready once the user's account can be read back.
type userIdentity struct {
	users repository.Authorization
	id    int
}

// NewUserIdentity returns a factory of identities backed by the user table.
func NewUserIdentity(users repository.Authorization) func(userID int) companion.Identity {
	return func(userID int) companion.Identity {
		return &userIdentity{users: users, id: userID}
	}
}

func (u *userIdentity) User(context.Context) (string, bool) {
	user, err := u.users.GetByID(u.id)
	if err != nil || user == nil {
		return "", false
	}
	return strconv.Itoa(user.ID), true
}
