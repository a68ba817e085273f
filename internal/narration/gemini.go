package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice   = "Callirrhoe"
	geminiSampleRate     = 24000
	geminiStylePrefix    = "Say in a relaxed, easy-going, medium-pitched voice: "
	synthTimeout         = 30 * time.Second
)

// GeminiConfig configures the Gemini speech provider.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
		SpeechConfig       struct {
			VoiceConfig struct {
				PrebuiltVoiceConfig struct {
					VoiceName string `json:"voiceName"`
				} `json:"prebuiltVoiceConfig"`
			} `json:"voiceConfig"`
		} `json:"speechConfig"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Gemini synthesizes raw 16-bit PCM through the Gemini TTS model.
type Gemini struct {
	http *resty.Client
	cfg  GeminiConfig
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultGeminiVoice
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(synthTimeout).
		SetHeader("Content-Type", "application/json")
	return &Gemini{http: client, cfg: cfg}
}

func (g *Gemini) Synthesize(ctx context.Context, text string) (Clip, error) {
	if g.cfg.APIKey == "" {
		return Clip{}, ErrUnconfigured
	}
	var req geminiRequest
	req.Contents = []geminiContent{{Parts: []geminiPart{{Text: geminiStylePrefix + text}}}}
	req.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = g.cfg.Voice

	var out geminiResponse
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("key", g.cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/v1beta/models/" + g.cfg.Model + ":generateContent")
	if err != nil {
		return Clip{}, fmt.Errorf("gemini tts request: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return Clip{}, fmt.Errorf("gemini tts failed: %s", msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 ||
		out.Candidates[0].Content.Parts[0].InlineData == nil {
		return Clip{}, errors.New("gemini tts: response carries no audio")
	}
	inline := out.Candidates[0].Content.Parts[0].InlineData
	if !strings.HasPrefix(strings.ToLower(inline.MimeType), "audio/") {
		return Clip{}, fmt.Errorf("gemini tts: unexpected inline data %q", inline.MimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return Clip{}, fmt.Errorf("gemini tts: decode audio: %w", err)
	}
	rate := sampleRateFromMime(inline.MimeType, geminiSampleRate)
	samples := DecodePCM16(raw)
	return Clip{
		Text:       text,
		Encoding:   EncodingPCMFloat32,
		SampleRate: rate,
		Samples:    samples,
		Duration:   pcmDuration(len(samples), rate),
	}, nil
}

// sampleRateFromMime reads "rate=NNNN" from a mime type such as
// "audio/L16;codec=pcm;rate=24000".
func sampleRateFromMime(mime string, fallback int) int {
	for _, p := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && k == "rate" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return fallback
}
