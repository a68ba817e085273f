package service

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"sensai"
	"sensai/internal/coach"
	"sensai/internal/companion"
	"sensai/internal/models"
	"sensai/internal/narration"
	"sensai/internal/pubsub"
	"sensai/internal/sensor"
)

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) (narration.Clip, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return narration.Clip{Text: text, Encoding: narration.EncodingMPEG, Data: []byte("id3")}, nil
}

type fakeSetter struct {
	mu     sync.Mutex
	device string
	target int
}

func (f *fakeSetter) SetTarget(_ context.Context, deviceID string, celsius int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.device, f.target = deviceID, celsius
	return nil
}

func (f *fakeSetter) get() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device, f.target
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakePublisher) Publish(topic string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

type managerFixture struct {
	manager  *CompanionManager
	sessions *fakeSessionRepo
	events   *fakeEventRepo
	synth    *fakeSynth
}

func newManagerFixture(t *testing.T, deps Deps) *managerFixture {
	t.Helper()
	repo := newFakeSessionRepo()
	events := &fakeEventRepo{}
	synth := &fakeSynth{}
	if deps.Synth == nil {
		deps.Synth = synth
	}
	deps.Advisor = coach.Local{}
	deps.Companion.Flow = companion.FlowClassic
	deps.Companion.RevealDelay = 10 * time.Millisecond
	deps.Companion.TickInterval = time.Hour
	deps.Companion.NarrationEnabled = true

	users := &mockAuthRepo{}
	m := NewCompanionManager(deps,
		NewSessionStore(repo, pubsub.NewLocal(), nil),
		NewEventLogService(events, nil),
		NewUserIdentity(users),
		nil,
	)
	t.Cleanup(m.Close)
	return &managerFixture{manager: m, sessions: repo, events: events, synth: synth}
}

func nextFrame(t *testing.T, frames <-chan sensai.Frame, typ string) sensai.Frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				t.Fatalf("stream closed while waiting for %q", typ)
			}
			if f.Type == typ {
				return f
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q frame", typ)
		}
	}
}

func TestCompanionManager_StreamAndNarration(t *testing.T) {
	fx := newManagerFixture(t, Deps{})
	ctx := context.Background()

	frames, cancel, err := fx.manager.Stream(ctx, 1)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer cancel()

	first := nextFrame(t, frames, sensai.FrameState)
	if snap := first.Data.(companion.Snapshot); snap.State != companion.Welcome {
		t.Fatalf("first frame state = %s", snap.State)
	}

	snap, err := fx.manager.Dispatch(ctx, 1, companion.Choose{Option: companion.OptionNew})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if snap.State != companion.NewUserOnboarding {
		t.Fatalf("state = %s", snap.State)
	}

	audio := nextFrame(t, frames, sensai.FrameAudio).Data.(sensai.AudioFrame)
	if audio.Text != "Welcome to the sauna. Please select your duration." || audio.Encoding != string(narration.EncodingMPEG) {
		t.Fatalf("unexpected audio frame: %+v", audio)
	}
}

func TestCompanionManager_SilentBeforeInteraction(t *testing.T) {
	fx := newManagerFixture(t, Deps{})

	snap, err := fx.manager.State(context.Background(), 2)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.Narration.Interacted {
		t.Fatalf("fresh companion must not be interacted")
	}
	time.Sleep(50 * time.Millisecond)
	fx.synth.mu.Lock()
	n := len(fx.synth.texts)
	fx.synth.mu.Unlock()
	if n != 0 {
		t.Fatalf("nothing may be spoken before the first interaction, got %d", n)
	}

	if _, err := fx.manager.MarkInteracted(context.Background(), 2); err != nil {
		t.Fatalf("MarkInteracted: %v", err)
	}
	if st := fx.manager.runtimes[2].gate.Status(); !st.Interacted {
		t.Fatalf("gate not interacted: %+v", st)
	}
}

func TestCompanionManager_SetNarrationWithoutSynth(t *testing.T) {
	fx := newManagerFixture(t, Deps{Synth: nil})
	fx.manager.deps.Synth = nil

	snap, err := fx.manager.State(context.Background(), 9)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.Narration.Enabled {
		t.Fatalf("narration must start disabled without a synthesizer: %+v", snap.Narration)
	}

	// enabling is allowed; speaking then fails quietly
	if _, err := fx.manager.SetNarration(context.Background(), 9, true); err != nil {
		t.Fatalf("SetNarration: %v", err)
	}
	if st := fx.manager.runtimes[9].gate.Status(); !st.Enabled {
		t.Fatalf("gate should be enabled: %+v", st)
	}
}

func TestCompanionManager_SessionRunWiring(t *testing.T) {
	setter := &fakeSetter{}
	pub := &fakePublisher{}
	feed := sensor.FeedFunc(func(ctx context.Context, minutes, target int, onSample func(models.SensorRecord)) sensor.StopFunc {
		onSample(models.SensorRecord{Temperature: 25, Humidity: 15})
		return func() {}
	})
	fx := newManagerFixture(t, Deps{Feed: feed, Telemetry: pub, Device: setter, DeviceID: "sauna-1"})
	fx.manager.deps.Companion.TelemetryPrefix = "sensai"
	ctx := context.Background()

	if _, err := fx.manager.Dispatch(ctx, 5, companion.Choose{Option: companion.OptionExperiment}); err != nil {
		t.Fatalf("Dispatch choose: %v", err)
	}
	snap, err := fx.manager.Dispatch(ctx, 5, companion.SubmitSettings{Settings: models.SaunaSettings{TimerMinutes: 10, TemperatureCelsius: 85}})
	if err != nil {
		t.Fatalf("Dispatch settings: %v", err)
	}
	if snap.State != companion.SessionTimer {
		t.Fatalf("state = %s", snap.State)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		dev, target := setter.get()
		if dev == "sauna-1" && target == 85 && pub.count() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("device=%q target=%d published=%d", dev, target, pub.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if pub.topics[0] != "sensai/5/telemetry" {
		t.Fatalf("topic = %q", pub.topics[0])
	}

	// end early and submit feedback: the session is persisted for user 5
	if _, err := fx.manager.Dispatch(ctx, 5, companion.EndSession{}); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if _, err := fx.manager.Dispatch(ctx, 5, companion.SubmitFeedback{Feedback: models.Feedback{Rating: 8, Heat: models.HeatJustRight, ShowStats: true}}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for {
		list, _ := fx.sessions.Load(ctx, "5")
		if len(list) == 1 {
			if list[0].Rating != 8 || len(list[0].SensorHistory) != 1 {
				t.Fatalf("unexpected persisted session: %+v", list[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session was not persisted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var transitions int
	for _, e := range fx.events.appended() {
		if e.UserID != "5" {
			t.Fatalf("journal entry for wrong user: %+v", e)
		}
		if e.Type == models.EventTransition {
			transitions++
		}
	}
	if transitions < 4 {
		t.Fatalf("want at least 4 transitions journaled, got %d", transitions)
	}
}

func TestCompanionManager_Close(t *testing.T) {
	fx := newManagerFixture(t, Deps{})
	if _, err := fx.manager.State(context.Background(), 1); err != nil {
		t.Fatalf("State: %v", err)
	}
	fx.manager.Close()

	if _, err := fx.manager.State(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestAudioFrame_EncodesPCM(t *testing.T) {
	clip := narration.Clip{
		Text:       "hi",
		Encoding:   narration.EncodingPCMFloat32,
		SampleRate: 24000,
		Samples:    []float32{0, 0.5, -1},
		Duration:   125 * time.Millisecond,
	}
	f := audioFrame(clip)
	if f.SampleRate != 24000 || f.DurationMs != 125 || f.Encoding != "pcm_f32" {
		t.Fatalf("unexpected frame: %+v", f)
	}
	raw, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil || len(raw) != 12 {
		t.Fatalf("decoded %d bytes, err %v", len(raw), err)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])); v != 0.5 {
		t.Fatalf("second sample = %v", v)
	}
}

func TestHub_DropsForSlowStreams(t *testing.T) {
	h := newHub(nil)
	frames, cancel := h.subscribe(sensai.Frame{Type: sensai.FrameState})
	for i := 0; i < frameBuffer*2; i++ {
		h.broadcast(sensai.Frame{Type: sensai.FrameAudioStop})
	}
	if len(frames) != frameBuffer {
		t.Fatalf("buffer should be full at %d, got %d", frameBuffer, len(frames))
	}
	cancel()
	cancel()
	if h.size() != 0 {
		t.Fatalf("subscriber not removed")
	}
}
