package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"sensai"
	"sensai/internal/companion"
	"sensai/internal/models"
	"sensai/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	anonToken     string
	anonErr       error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) SignInAnonymously() (string, error) {
	return m.anonToken, m.anonErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCompanion struct {
	mu sync.Mutex

	snap      companion.Snapshot
	err       error
	frames    chan sensai.Frame
	streamErr error

	lastUser      int
	lastEvent     companion.Event
	lastEnabled   *bool
	interactions  int
	streamCancels int
}

func (m *mockCompanion) State(_ context.Context, userID int) (companion.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	return m.snap, m.err
}
func (m *mockCompanion) Dispatch(_ context.Context, userID int, ev companion.Event) (companion.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	m.lastEvent = ev
	return m.snap, m.err
}
func (m *mockCompanion) MarkInteracted(_ context.Context, userID int) (companion.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	m.interactions++
	return m.snap, m.err
}
func (m *mockCompanion) SetNarration(_ context.Context, userID int, enabled bool) (companion.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	m.lastEnabled = &enabled
	return m.snap, m.err
}
func (m *mockCompanion) Stream(_ context.Context, userID int) (<-chan sensai.Frame, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = userID
	if m.streamErr != nil {
		return nil, nil, m.streamErr
	}
	return m.frames, func() {
		m.mu.Lock()
		m.streamCancels++
		m.mu.Unlock()
	}, nil
}
func (m *mockCompanion) interactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactions
}

type mockHistory struct {
	sessions  []models.SessionData
	stats     models.Stats
	err       error
	exportErr error
	preview   sensai.PreviewResponse

	lastUser    int
	lastPreview models.SessionData
}

func (m *mockHistory) Sessions(_ context.Context, userID int) ([]models.SessionData, error) {
	m.lastUser = userID
	return m.sessions, m.err
}
func (m *mockHistory) Stats(_ context.Context, userID int) (models.Stats, error) {
	m.lastUser = userID
	return m.stats, m.err
}
func (m *mockHistory) Export(_ context.Context, userID int, w io.Writer) error {
	m.lastUser = userID
	if m.exportErr != nil {
		return m.exportErr
	}
	_, err := w.Write([]byte("PK-workbook"))
	return err
}
func (m *mockHistory) Preview(_ context.Context, in models.SessionData) sensai.PreviewResponse {
	m.lastPreview = in
	return m.preview
}

type mockEventLog struct {
	resp     []models.CompanionEvent
	err      error
	lastUser int
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, userID int, f service.LogFilter) ([]models.CompanionEvent, error) {
	m.lastUser = userID
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
