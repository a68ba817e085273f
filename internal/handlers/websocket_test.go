package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sensai"
	"sensai/internal/companion"
	"sensai/internal/service"
)

func dialStream(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func TestWebSocket_ForwardsFrames(t *testing.T) {
	comp := &mockCompanion{frames: make(chan sensai.Frame, 4)}
	comp.frames <- sensai.Frame{Type: sensai.FrameState, Data: companion.Snapshot{State: companion.Welcome, Flow: companion.FlowClassic}}
	comp.frames <- sensai.Frame{Type: sensai.FrameAudio, Data: sensai.AudioFrame{Text: "Hello", Encoding: "pcm_f32", SampleRate: 24000}}

	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 5}, Companion: comp})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, "tok")
	defer conn.Close()

	type envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if env.Type != sensai.FrameState || !strings.Contains(string(env.Data), `"state":"Welcome"`) {
		t.Fatalf("unexpected state frame: type=%s data=%s", env.Type, env.Data)
	}

	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read audio: %v", err)
	}
	var audio sensai.AudioFrame
	_ = json.Unmarshal(env.Data, &audio)
	if env.Type != sensai.FrameAudio || audio.Text != "Hello" || audio.SampleRate != 24000 {
		t.Fatalf("unexpected audio frame: %+v", audio)
	}

	comp.mu.Lock()
	uid := comp.lastUser
	comp.mu.Unlock()
	if uid != 5 {
		t.Fatalf("stream opened for user %d, want 5", uid)
	}
}

func TestWebSocket_InteractionMessage(t *testing.T) {
	comp := &mockCompanion{frames: make(chan sensai.Frame)}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Companion: comp})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, "tok")
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "noise"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "interaction"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for comp.interactionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("interactions = %d, want 1", comp.interactionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_ClosedStreamClosesConnection(t *testing.T) {
	comp := &mockCompanion{frames: make(chan sensai.Frame)}
	close(comp.frames)
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Companion: comp})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, "tok")
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}

func TestWebSocket_StreamErrorBeforeUpgrade(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"failure", errors.New("boom"), http.StatusInternalServerError},
		{"shutting down", service.ErrClosed, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comp := &mockCompanion{streamErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Companion: comp})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ws?access_token=tok", nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Companion: &mockCompanion{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
