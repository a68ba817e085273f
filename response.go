package sensai

import (
	"time"

	"sensai/internal/models"
)

// Websocket frame types.
const (
	FrameState     = "state"
	FrameAudio     = "audio"
	FrameAudioStop = "audio_stop"
)

// Frame is one message pushed to a user's connected clients.
type Frame struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// AudioFrame carries one narration clip. Data is base64: little-endian
// float32 samples for pcm_f32, the raw file for audio/mpeg.
type AudioFrame struct {
	Text       string `json:"text"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Data       string `json:"data"`
}

// EventRequest is a user action posted to the companion.
type EventRequest struct {
	// start | advance | back | choose | answer | submit_goal | submit_settings | end_session | submit_feedback | cancel | reset
	Type     string                `json:"type" binding:"required" example:"choose"`
	Option   string                `json:"option,omitempty" example:"new"`
	Yes      *bool                 `json:"yes,omitempty"`
	Goal     string                `json:"goal,omitempty" example:"relaxation"`
	Settings *models.SaunaSettings `json:"settings,omitempty"`
	Feedback *models.Feedback      `json:"feedback,omitempty"`
}

// NarrationRequest toggles narration for the caller.
type NarrationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PreviewRequest describes a hypothetical session to get advice for.
type PreviewRequest struct {
	TimerMinutes       int    `json:"timer_minutes" example:"15"`
	TemperatureCelsius int    `json:"temperature_c" example:"80"`
	MusicEnabled       bool   `json:"music_enabled"`
	Rating             int    `json:"rating" example:"7"`
	Heat               string `json:"heat" example:"Just right"`
	Oil                string `json:"oil,omitempty" example:"eucalyptus"`
	Thoughts           string `json:"thoughts,omitempty"`
}

// Session builds the session the preview is computed for.
func (p PreviewRequest) Session() models.SessionData {
	return models.NewSessionData(
		models.SaunaSettings{
			TimerMinutes:       p.TimerMinutes,
			TemperatureCelsius: p.TemperatureCelsius,
			MusicEnabled:       p.MusicEnabled,
		}.Normalize(),
		models.Feedback{
			Rating:   p.Rating,
			Heat:     models.HeatLevel(p.Heat),
			Oil:      p.Oil,
			Thoughts: p.Thoughts,
		},
		nil,
		time.Now(),
	)
}

// PreviewResponse is the recommendation for a PreviewRequest.
type PreviewResponse struct {
	Recommendation       string               `json:"recommendation"`
	SuggestedTemperature int                  `json:"suggested_temperature_c"`
	NextSettings         models.SaunaSettings `json:"next_settings"`
}
