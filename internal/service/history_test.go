package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"sensai/internal/coach"
	"sensai/internal/models"
)

func TestHistoryService_StatsAndSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.docs["3"] = []models.SessionData{session(6), session(9)}
	svc := NewHistoryService(repo, nil)

	list, err := svc.Sessions(context.Background(), 3)
	if err != nil || len(list) != 2 {
		t.Fatalf("Sessions = %d, %v", len(list), err)
	}
	st, err := svc.Stats(context.Background(), 3)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalSessions != 2 || st.AvgRating != 7.5 || st.LastSession == nil || st.LastSession.Rating != 9 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestHistoryService_Preview(t *testing.T) {
	svc := NewHistoryService(newFakeSessionRepo(), coach.Local{})
	in := models.NewSessionData(
		models.SaunaSettings{TimerMinutes: 15, TemperatureCelsius: 80},
		models.Feedback{Rating: 5, Heat: models.HeatTooHot},
		nil, time.Now(),
	)

	got := svc.Preview(context.Background(), in)
	if got.Recommendation != coach.Recommend(in) {
		t.Fatalf("recommendation mismatch:\n got %q\nwant %q", got.Recommendation, coach.Recommend(in))
	}
	if got.SuggestedTemperature != 78 || got.NextSettings.TemperatureCelsius != 78 {
		t.Fatalf("unexpected suggestion: %+v", got)
	}
}

func TestHistoryService_Export(t *testing.T) {
	repo := newFakeSessionRepo()
	s := models.NewSessionData(
		models.SaunaSettings{TimerMinutes: 15, TemperatureCelsius: 80, MusicEnabled: true},
		models.Feedback{Rating: 8, Heat: models.HeatJustRight, Oil: "Eucalyptus"},
		[]models.SensorRecord{
			{Time: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Temperature: 25, Humidity: 15},
			{Time: time.Date(2025, 1, 1, 10, 0, 3, 0, time.UTC), Temperature: 25.5, Humidity: 15.2},
		},
		time.Date(2025, 1, 1, 10, 15, 0, 0, time.UTC),
	)
	repo.docs["4"] = []models.SessionData{s}
	svc := NewHistoryService(repo, nil)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), 4, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetSessions)
	if err != nil {
		t.Fatalf("GetRows sessions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want header + 1 session row, got %d", len(rows))
	}
	row := strings.Join(rows[1], "|")
	for _, want := range []string{"2025-01-01 10:15:00", "80", "Yes", "Just right", "Eucalyptus"} {
		if !strings.Contains(row, want) {
			t.Fatalf("session row %q misses %q", row, want)
		}
	}

	sensors, err := f.GetRows(sheetSensors)
	if err != nil {
		t.Fatalf("GetRows sensors: %v", err)
	}
	if len(sensors) != 3 || sensors[2][2] != "25.5" {
		t.Fatalf("unexpected sensor rows: %v", sensors)
	}
}
