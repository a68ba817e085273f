package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sensai/internal/models"
	"sensai/internal/pubsub"
	"sensai/internal/repository"
)

// fakeSessionRepo keeps session documents in memory.
type fakeSessionRepo struct {
	mu      sync.Mutex
	docs    map[string][]models.SessionData
	loadErr error
	creates int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{docs: make(map[string][]models.SessionData)}
}

func (f *fakeSessionRepo) Load(_ context.Context, userID string) ([]models.SessionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]models.SessionData{}, f.docs[userID]...), nil
}

func (f *fakeSessionRepo) Append(_ context.Context, userID string, s models.SessionData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[userID]
	if !ok {
		return repository.ErrDocNotFound
	}
	f.docs[userID] = append(doc, s)
	return nil
}

func (f *fakeSessionRepo) Create(_ context.Context, userID string, sessions []models.SessionData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.docs[userID] = append([]models.SessionData{}, sessions...)
	return nil
}

func (f *fakeSessionRepo) Reset(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[userID] = []models.SessionData{}
	return nil
}

func session(rating int) models.SessionData {
	return models.NewSessionData(models.DefaultSettings(), models.Feedback{Rating: rating}, nil, time.Now())
}

func waitList(t *testing.T, ch <-chan []models.SessionData) []models.SessionData {
	t.Helper()
	select {
	case l := <-ch:
		return l
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for session list")
		return nil
	}
}

func TestSessionStore_AppendCreatesMissingDocument(t *testing.T) {
	repo := newFakeSessionRepo()
	store := NewSessionStore(repo, pubsub.NewLocal(), nil)
	ctx := context.Background()

	if err := store.Append(ctx, "1", session(6)); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := store.Append(ctx, "1", session(8)); err != nil {
		t.Fatalf("second Append: %v", err)
	}
	list, _ := store.Load(ctx, "1")
	if len(list) != 2 || list[0].Rating != 6 || list[1].Rating != 8 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if repo.creates != 1 {
		t.Fatalf("want exactly one create, got %d", repo.creates)
	}
}

func TestSessionStore_SubscribeDeliversInitialAndChanges(t *testing.T) {
	repo := newFakeSessionRepo()
	store := NewSessionStore(repo, pubsub.NewLocal(), nil)
	ctx := context.Background()

	got := make(chan []models.SessionData, 8)
	stop, err := store.Subscribe(ctx, "1", func(l []models.SessionData) { got <- l })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if l := waitList(t, got); len(l) != 0 {
		t.Fatalf("initial list should be empty, got %d", len(l))
	}

	if err := store.Append(ctx, "1", session(9)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if l := waitList(t, got); len(l) != 1 || l[0].Rating != 9 {
		t.Fatalf("unexpected list after append: %+v", l)
	}

	if err := store.Reset(ctx, "1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if l := waitList(t, got); len(l) != 0 {
		t.Fatalf("list after reset should be empty, got %d", len(l))
	}

	// other users do not wake this subscriber
	_ = store.Append(ctx, "2", session(3))
	select {
	case l := <-got:
		t.Fatalf("unexpected delivery for another user: %+v", l)
	case <-time.After(50 * time.Millisecond):
	}

	stop()
	stop()
}

func TestSessionStore_SubscribeLoadError(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.loadErr = errors.New("db down")
	store := NewSessionStore(repo, nil, nil)

	if _, err := store.Subscribe(context.Background(), "1", func([]models.SessionData) {}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestUserIdentity(t *testing.T) {
	repo := &mockAuthRepo{GetByIDFn: func(id int) (*models.User, error) {
		if id == 5 {
			return &models.User{ID: 5}, nil
		}
		return nil, nil
	}}
	identity := NewUserIdentity(repo)

	if uid, ok := identity(5).User(context.Background()); !ok || uid != "5" {
		t.Fatalf("identity(5) = %q, %v", uid, ok)
	}
	if _, ok := identity(6).User(context.Background()); ok {
		t.Fatalf("unknown user must not be ready")
	}
}
