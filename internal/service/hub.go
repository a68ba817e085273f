package service

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"math"
	"sync"

	"sensai"
	"sensai/internal/logger"
	"sensai/internal/narration"
)

const frameBuffer = 32

// hub fans frames out to every stream of one user. It is also the user's
// ClipSink: clips become audio frames. Slow streams lose frames rather than
// block the companion.
type hub struct {
	log *logger.Logger

	mu   sync.Mutex
	next int
	subs map[int]chan sensai.Frame
}

var _ narration.ClipSink = (*hub)(nil)

func newHub(log *logger.Logger) *hub {
	if log == nil {
		log = logger.Nop()
	}
	return &hub{log: log, subs: make(map[int]chan sensai.Frame)}
}

func (h *hub) subscribe(first sensai.Frame) (<-chan sensai.Frame, func()) {
	ch := make(chan sensai.Frame, frameBuffer)
	ch <- first
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *hub) broadcast(f sensai.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- f:
		default:
			h.log.Debugw("stream_frame_dropped", "stream", id, "type", f.Type)
		}
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) PlayClip(_ context.Context, clip narration.Clip) error {
	h.broadcast(sensai.Frame{Type: sensai.FrameAudio, Data: audioFrame(clip)})
	return nil
}

func (h *hub) StopClip() {
	h.broadcast(sensai.Frame{Type: sensai.FrameAudioStop})
}

func audioFrame(c narration.Clip) sensai.AudioFrame {
	data := c.Data
	if c.Encoding == narration.EncodingPCMFloat32 {
		data = make([]byte, 4*len(c.Samples))
		for i, v := range c.Samples {
			binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
		}
	}
	return sensai.AudioFrame{
		Text:       c.Text,
		Encoding:   string(c.Encoding),
		SampleRate: c.SampleRate,
		DurationMs: c.Duration.Milliseconds(),
		Data:       base64.StdEncoding.EncodeToString(data),
	}
}
