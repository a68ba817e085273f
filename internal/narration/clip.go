// Package narration turns companion text into audio clips and enforces when
// the companion may speak.
package narration

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

// ErrUnconfigured is returned by a synthesizer without credentials.
var ErrUnconfigured = errors.New("narration provider is not configured")

// Encoding of a clip's audio.
type Encoding string

const (
	// EncodingPCMFloat32 carries mono samples in [-1, 1] in Clip.Samples.
	EncodingPCMFloat32 Encoding = "pcm_f32"
	// EncodingMPEG carries a ready-to-play MPEG blob in Clip.Data.
	EncodingMPEG Encoding = "audio/mpeg"
)

// Clip is one synthesized utterance.
type Clip struct {
	Text       string        `json:"text"`
	Encoding   Encoding      `json:"encoding"`
	SampleRate int           `json:"sample_rate,omitempty"`
	Samples    []float32     `json:"samples,omitempty"`
	Data       []byte        `json:"data,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Synthesizer converts text to a clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Clip, error)
}

// DecodePCM16 converts signed 16-bit little-endian PCM to float samples
// in [-1, 1]. A trailing odd byte is ignored.
func DecodePCM16(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// pcmDuration is the playback length of n mono samples.
func pcmDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

// mpegBitrate is used to estimate MPEG clip length from its size.
const mpegBitrate = 128_000

func mpegDuration(size int) time.Duration {
	return time.Duration(size) * 8 * time.Second / mpegBitrate
}
