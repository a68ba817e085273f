package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"sensai"
	"sensai/internal/companion"
	"sensai/internal/logger"
	"sensai/internal/narration"
	"sensai/internal/sensor"
)

// ErrClosed is returned once the manager has been shut down.
var ErrClosed = errors.New("companion manager is closed")

// TargetSetter drives a sauna's target temperature.
type TargetSetter interface {
	SetTarget(ctx context.Context, deviceID string, celsius int) error
}

type device struct {
	setter TargetSetter
	id     string
}

func (d device) SetTarget(ctx context.Context, celsius int) error {
	return d.setter.SetTarget(ctx, d.id, celsius)
}

// silence stands in when no synthesizer is configured.
type silence struct{}

func (silence) Synthesize(context.Context, string) (narration.Clip, error) {
	return narration.Clip{}, narration.ErrUnconfigured
}

type userRuntime struct {
	machine *companion.Machine
	gate    *narration.Gate
	hub     *hub
}

// CompanionManager runs one companion per user, started on first use and
// stopped by Close.
type CompanionManager struct {
	deps     Deps
	sessions *SessionStore
	journal  *EventLogService
	identity func(userID int) companion.Identity
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	runtimes map[int]*userRuntime
	closed   bool
}

func NewCompanionManager(deps Deps, sessions *SessionStore, journal *EventLogService, identity func(int) companion.Identity, log *logger.Logger) *CompanionManager {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CompanionManager{
		deps:     deps,
		sessions: sessions,
		journal:  journal,
		identity: identity,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		runtimes: make(map[int]*userRuntime),
	}
}

func (m *CompanionManager) State(_ context.Context, userID int) (companion.Snapshot, error) {
	rt, err := m.runtime(userID)
	if err != nil {
		return companion.Snapshot{}, err
	}
	return rt.machine.Snapshot(), nil
}

func (m *CompanionManager) Dispatch(ctx context.Context, userID int, ev companion.Event) (companion.Snapshot, error) {
	rt, err := m.runtime(userID)
	if err != nil {
		return companion.Snapshot{}, err
	}
	// any action is a user gesture
	rt.gate.MarkInteracted()
	return rt.machine.Dispatch(ctx, ev)
}

// MarkInteracted records a user gesture without moving the companion.
func (m *CompanionManager) MarkInteracted(_ context.Context, userID int) (companion.Snapshot, error) {
	rt, err := m.runtime(userID)
	if err != nil {
		return companion.Snapshot{}, err
	}
	rt.gate.MarkInteracted()
	return rt.machine.Snapshot(), nil
}

func (m *CompanionManager) SetNarration(_ context.Context, userID int, enabled bool) (companion.Snapshot, error) {
	rt, err := m.runtime(userID)
	if err != nil {
		return companion.Snapshot{}, err
	}
	rt.gate.SetEnabled(enabled)
	return rt.machine.Snapshot(), nil
}

// Stream opens a frame stream that starts with the current state.
func (m *CompanionManager) Stream(_ context.Context, userID int) (<-chan sensai.Frame, func(), error) {
	rt, err := m.runtime(userID)
	if err != nil {
		return nil, nil, err
	}
	frames, cancel := rt.hub.subscribe(stateFrame(rt.machine.Snapshot()))
	return frames, cancel, nil
}

// Close stops every runtime and waits for them to finish.
func (m *CompanionManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func (m *CompanionManager) runtime(userID int) (*userRuntime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if rt, ok := m.runtimes[userID]; ok {
		return rt, nil
	}

	rt := m.newRuntime(userID)
	m.runtimes[userID] = rt
	stopObserving := rt.machine.Observe(func(s companion.Snapshot) {
		rt.hub.broadcast(stateFrame(s))
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stopObserving()
		if err := rt.machine.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Errorw("companion_stopped", "user_id", userID, "err", err)
		}
		m.mu.Lock()
		if m.runtimes[userID] == rt {
			delete(m.runtimes, userID)
		}
		m.mu.Unlock()
	}()
	m.log.Infow("companion_started", "user_id", userID, "flow", m.deps.Companion.Flow)
	return rt, nil
}

func (m *CompanionManager) newRuntime(userID int) *userRuntime {
	cfg := m.deps.Companion
	uid := strconv.Itoa(userID)
	log := m.log.With("user_id", uid)

	h := newHub(log)
	synth, enabled := m.deps.Synth, cfg.NarrationEnabled
	if synth == nil {
		synth, enabled = silence{}, false
	}
	gate := narration.NewGate(synth, narration.NewSlotPlayer(h), enabled, log.Named("narration"))

	feed := m.deps.Feed
	if feed != nil && m.deps.Telemetry != nil {
		feed = sensor.NewTee(feed, m.deps.Telemetry, sensor.TelemetryTopic(cfg.TelemetryPrefix, uid), log)
	}
	var dev companion.Device
	if m.deps.Device != nil && m.deps.DeviceID != "" {
		dev = device{setter: m.deps.Device, id: m.deps.DeviceID}
	}
	var journal companion.Journal
	if m.journal != nil {
		journal = m.journal.For(uid)
	}

	machine := companion.New(companion.Config{
		Flow:              cfg.Flow,
		Identity:          m.identity(userID),
		Store:             m.sessions,
		Advisor:           m.deps.Advisor,
		Feed:              feed,
		Device:            dev,
		Narrator:          gate,
		Script:            cfg.Script,
		Journal:           journal,
		Log:               log,
		RevealDelay:       cfg.RevealDelay,
		TickInterval:      cfg.TickInterval,
		InterventionEvery: cfg.InterventionEvery,
	})
	gate.OnChange(machine.NarrationChanged)

	return &userRuntime{machine: machine, gate: gate, hub: h}
}

func stateFrame(s companion.Snapshot) sensai.Frame {
	return sensai.Frame{Type: sensai.FrameState, Data: s}
}
