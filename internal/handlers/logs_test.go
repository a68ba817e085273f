package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sensai/internal/models"
	"sensai/internal/service"
)

func getWithAuth(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	h.ServeHTTP(w, req)
	return w
}

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.CompanionEvent{
		{EventID: "e1", UserID: "99", OccurredAt: now, Type: models.EventTransition, Description: "Welcome -> Goodbye"},
		{EventID: "e2", UserID: "99", OccurredAt: now.Add(time.Second), Type: models.EventNarration, Description: "Hello"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: auth, EventLog: logs})

	if w := getWithAuth(t, r, "/api/v1/logs?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}
	if w := getWithAuth(t, r, "/api/v1/logs?to=yesterday"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'to', got %d", w.Code)
	}
	if w := getWithAuth(t, r, "/api/v1/logs?type=boiler"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}
	if w := getWithAuth(t, r, "/api/v1/logs?from=2025-02-02&to=2025-02-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}

	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=2099-01-01&type=narration"
	w := getWithAuth(t, r, q)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                     `json:"count"`
		Events []models.CompanionEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastUser != 99 || logs.lastFilter.Type != "NARRATION" {
		t.Fatalf("unexpected service call: user=%d filter=%+v", logs.lastUser, logs.lastFilter)
	}
	// date-only 'to' covers the whole day
	wantTo := time.Date(2099, 1, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastFilter.To.Equal(wantTo) {
		t.Fatalf("to = %v, want %v", logs.lastFilter.To, wantTo)
	}
}

func TestLogsHandler_ServiceError(t *testing.T) {
	logs := &mockEventLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	if w := getWithAuth(t, r, "/api/v1/logs"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-27T15:04:05Z", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27T17:04:05+02:00", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27 15:04:05", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27", time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC), true},
		{"27/08/2025", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseQueryTime(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("parseQueryTime(%q) err = %v", tc.in, err)
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Fatalf("parseQueryTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
