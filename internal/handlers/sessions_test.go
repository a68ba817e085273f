package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"sensai"
	"sensai/internal/models"
	"sensai/internal/service"
)

func TestSessionHandlers_ListAndStats(t *testing.T) {
	hist := &mockHistory{
		sessions: []models.SessionData{{}, {}},
		stats:    models.Stats{TotalSessions: 2, AvgRating: 7.5},
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 3}, History: hist})

	w := getWithAuth(t, r, "/api/v1/sessions")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 2 || hist.lastUser != 3 {
		t.Fatalf("count=%d user=%d", list.Count, hist.lastUser)
	}

	w = getWithAuth(t, r, "/api/v1/sessions/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status=%d", w.Code)
	}
	var st models.Stats
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.TotalSessions != 2 || st.AvgRating != 7.5 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	hist.err = errors.New("db down")
	if w := getWithAuth(t, r, "/api/v1/sessions"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w := getWithAuth(t, r, "/api/v1/sessions/stats"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestSessionHandlers_Export(t *testing.T) {
	hist := &mockHistory{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 3}, History: hist})

	w := getWithAuth(t, r, "/api/v1/sessions/export")
	if w.Code != http.StatusOK {
		t.Fatalf("export status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, ".xlsx") {
		t.Fatalf("content disposition = %q", cd)
	}
	if w.Body.String() != "PK-workbook" {
		t.Fatalf("body = %q", w.Body.String())
	}

	hist.exportErr = errors.New("disk full")
	if w := getWithAuth(t, r, "/api/v1/sessions/export"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestSessionHandlers_Preview(t *testing.T) {
	hist := &mockHistory{preview: sensai.PreviewResponse{
		Recommendation:       "Try a little cooler next time.",
		SuggestedTemperature: 75,
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 3}, History: hist})

	if w := postJSON(r, "/api/v1/recommendations/preview", `{"rating":"high"}`, authHeader("t")); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: got %d", w.Code)
	}

	body := `{"timer_minutes":15,"temperature_c":90,"rating":4,"heat":"Too hot"}`
	w := postJSON(r, "/api/v1/recommendations/preview", body, authHeader("t"))
	if w.Code != http.StatusOK {
		t.Fatalf("preview status=%d body=%s", w.Code, w.Body.String())
	}
	var out sensai.PreviewResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.SuggestedTemperature != 75 || out.Recommendation == "" {
		t.Fatalf("unexpected preview: %+v", out)
	}
	if hist.lastPreview.Rating != 4 || hist.lastPreview.TemperatureCelsius != 90 {
		t.Fatalf("preview session = %+v", hist.lastPreview)
	}
}
