package models

import (
	"fmt"
	"strings"
	"time"
)

// HeatLevel is the user's perception of the heat during a session.
type HeatLevel string

const (
	HeatTooCold   HeatLevel = "Too cold"
	HeatJustRight HeatLevel = "Just right"
	HeatTooHot    HeatLevel = "Too hot"
)

// ParseHeatLevel accepts the display values and a few loose spellings
// ("too_hot", "TOO HOT", "not enough"). Anything else is "Just right".
func ParseHeatLevel(s string) HeatLevel {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("_", " ", "-", " ").Replace(k)
	switch k {
	case "too cold", "cold", "not enough":
		return HeatTooCold
	case "too hot", "hot":
		return HeatTooHot
	default:
		return HeatJustRight
	}
}

// Rating bounds for session feedback.
const (
	MinRating = 1
	MaxRating = 10
)

// Feedback is the draft collected after a session, before it is persisted.
type Feedback struct {
	Rating                   int       `json:"rating"`
	Heat                     HeatLevel `json:"heat"`
	Oil                      string    `json:"oil"`
	Thoughts                 string    `json:"thoughts"`
	RecommendationsRequested bool      `json:"recommendations_requested"`
	ShowStats                bool      `json:"show_stats"`
}

// DefaultFeedback mirrors the initial values of the feedback form.
func DefaultFeedback() Feedback {
	return Feedback{Rating: 5, Heat: HeatJustRight, ShowStats: true}
}

// Normalize clamps the rating and canonicalizes the heat level.
func (f Feedback) Normalize() Feedback {
	if f.Rating < MinRating {
		f.Rating = MinRating
	}
	if f.Rating > MaxRating {
		f.Rating = MaxRating
	}
	f.Heat = ParseHeatLevel(string(f.Heat))
	return f
}

// SessionData is one persisted sauna session. Once written it is never mutated.
type SessionData struct {
	SaunaSettings
	Feedback
	SensorHistory []SensorRecord `json:"sensor_history"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewSessionData assembles the immutable session record from its parts.
// The sensor history is copied so later appends by the caller cannot leak in.
func NewSessionData(settings SaunaSettings, fb Feedback, history []SensorRecord, at time.Time) SessionData {
	h := make([]SensorRecord, len(history))
	copy(h, history)
	return SessionData{
		SaunaSettings: settings,
		Feedback:      fb.Normalize(),
		SensorHistory: h,
		Timestamp:     at.UTC(),
	}
}

// String is a compact description used in logs and prompts.
func (s SessionData) String() string {
	music := "without music"
	if s.MusicEnabled {
		music = "with music"
	}
	return fmt.Sprintf("%d min at %d°C %s, rated %d/10, heat %q, oil %q",
		s.TimerMinutes, s.TemperatureCelsius, music, s.Rating, s.Heat, s.Oil)
}
