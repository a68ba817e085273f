package narration

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultElevenLabsModel   = "eleven_multilingual_v2"
)

// ElevenLabsConfig configures the ElevenLabs speech provider.
type ElevenLabsConfig struct {
	BaseURL string
	APIKey  string
	VoiceID string
	Model   string
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// ElevenLabs returns ready-to-play MPEG audio.
type ElevenLabs struct {
	http *resty.Client
	cfg  ElevenLabsConfig
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultElevenLabsModel
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(synthTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", string(EncodingMPEG))
	return &ElevenLabs{http: client, cfg: cfg}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (Clip, error) {
	if e.cfg.APIKey == "" || e.cfg.VoiceID == "" {
		return Clip{}, ErrUnconfigured
	}
	resp, err := e.http.R().
		SetContext(ctx).
		SetHeader("xi-api-key", e.cfg.APIKey).
		SetBody(elevenLabsRequest{Text: text, ModelID: e.cfg.Model}).
		Post("/v1/text-to-speech/" + url.PathEscape(e.cfg.VoiceID))
	if err != nil {
		return Clip{}, fmt.Errorf("elevenlabs tts request: %w", err)
	}
	if resp.IsError() {
		return Clip{}, fmt.Errorf("elevenlabs tts failed: %s", resp.Status())
	}
	data := resp.Body()
	if len(data) == 0 {
		return Clip{}, errors.New("elevenlabs tts: empty audio")
	}
	return Clip{
		Text:     text,
		Encoding: EncodingMPEG,
		Data:     data,
		Duration: mpegDuration(len(data)),
	}, nil
}
