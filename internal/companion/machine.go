package companion

import (
	"context"
	"errors"
	"sync"
	"time"

	"sensai/internal/coach"
	"sensai/internal/logger"
	"sensai/internal/models"
	"sensai/internal/narration"
	"sensai/internal/sensor"
	"sensai/internal/stats"
)

// ErrStopped is returned by Dispatch once the machine's loop has exited.
var ErrStopped = errors.New("companion is stopped")

// Defaults of the runtime timers.
const (
	DefaultRevealDelay       = 1500 * time.Millisecond
	DefaultTickInterval      = time.Second
	DefaultInterventionEvery = 4
	identityRetryInterval    = time.Second
)

// Config holds a Machine's collaborators. Store, Device and Journal may be nil.
type Config struct {
	Flow              Flow
	Identity          Identity
	Store             SessionStore
	Advisor           coach.Advisor
	Feed              sensor.Feed
	Device            Device
	Narrator          Narrator
	Script            *Script
	Journal           Journal
	Log               *logger.Logger
	Now               func() time.Time
	RevealDelay       time.Duration
	TickInterval      time.Duration
	InterventionEvery int
}

// Snapshot is the externally visible view of the companion.
type Snapshot struct {
	Flow      Flow             `json:"flow"`
	State     StateName        `json:"state"`
	Payload   State            `json:"payload"`
	Phase     int              `json:"phase"`
	Epoch     uint64           `json:"epoch"`
	Line      string           `json:"line,omitempty"`
	Stats     models.Stats     `json:"stats"`
	Narration narration.Status `json:"narration"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type (
	userMsg struct {
		ev    Event
		reply chan Snapshot
	}
	taskMsg struct {
		ev    Event
		epoch uint64
	}
	revealMsg struct {
		epoch uint64
	}
	sessionsMsg struct {
		sessions []models.SessionData
	}
)

// Machine runs one user's companion. All state changes happen on the
// goroutine started by Run; other goroutines talk to it through messages.
type Machine struct {
	cfg   Config
	log   *logger.Logger
	inbox chan any
	done  chan struct{}
	// store writes, applied one at a time in submission order
	writes chan func(context.Context)

	// owned by the loop
	state       State
	epoch       uint64
	phase       int
	spoken      bool
	stateCtx    context.Context
	stateCancel context.CancelFunc
	stopRun     func()
	reveal      *time.Timer
	stats       models.Stats
	sessions    []models.SessionData
	runCtx      context.Context

	mu        sync.RWMutex
	snap      Snapshot
	observers map[int]func(Snapshot)
	nextObs   int
	started   bool
}

// New builds a machine in its flow's initial state. Call Run to start it.
func New(cfg Config) *Machine {
	if cfg.Flow == "" {
		cfg.Flow = FlowClassic
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Script == nil {
		cfg.Script = DefaultScript()
	}
	if cfg.Advisor == nil {
		cfg.Advisor = coach.Local{}
	}
	if cfg.RevealDelay <= 0 {
		cfg.RevealDelay = DefaultRevealDelay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.InterventionEvery < 0 {
		cfg.InterventionEvery = 0
	}
	m := &Machine{
		cfg:       cfg,
		log:       cfg.Log,
		inbox:     make(chan any, 16),
		writes:    make(chan func(context.Context), 64),
		done:      make(chan struct{}),
		state:     cfg.Flow.Initial(),
		observers: make(map[int]func(Snapshot)),
	}
	m.snap = Snapshot{Flow: cfg.Flow, State: m.state.Name(), Payload: m.state, Phase: 1, UpdatedAt: cfg.Now().UTC()}
	if cfg.Narrator != nil {
		m.snap.Narration = cfg.Narrator.Status()
	}
	return m
}

// Run processes events until ctx is done. It returns ctx's error.
func (m *Machine) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("companion already running")
	}
	m.started = true
	m.mu.Unlock()

	defer close(m.done)
	m.runCtx = ctx
	writerDone := m.startWriter()
	defer func() {
		close(m.writes)
		<-writerDone
	}()
	m.enter()
	m.publish()

	unsubscribe := m.watchSessions(ctx)
	defer unsubscribe()
	defer m.exit()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.inbox:
			m.handle(msg)
		}
	}
}

// Done is closed when Run has returned.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Dispatch applies a user event and returns the resulting snapshot.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case m.inbox <- userMsg{ev: ev, reply: reply}:
	case <-m.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-m.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Snapshot returns the latest published view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Observe registers fn for every published snapshot. fn must not block.
func (m *Machine) Observe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// NarrationChanged republishes the snapshot with the narrator's status.
// It is safe to call from any goroutine.
func (m *Machine) NarrationChanged(st narration.Status) {
	m.mu.Lock()
	m.snap.Narration = st
	m.snap.UpdatedAt = m.cfg.Now().UTC()
	snap := m.snap
	obs := m.observerList()
	m.mu.Unlock()
	for _, fn := range obs {
		fn(snap)
	}
}

func (m *Machine) handle(msg any) {
	switch v := msg.(type) {
	case userMsg:
		m.apply(v.ev)
		v.reply <- m.Snapshot()
	case taskMsg:
		if v.epoch != m.epoch {
			m.log.Debugw("companion_stale_event_dropped", "epoch", v.epoch, "current", m.epoch)
			return
		}
		m.apply(v.ev)
	case revealMsg:
		if v.epoch != m.epoch || m.phase != 1 {
			return
		}
		m.phase = 2
		m.narrateEntry()
		m.publish()
	case sessionsMsg:
		m.sessions = v.sessions
		m.stats = stats.Reconcile(m.stats, v.sessions)
		m.publish()
	}
}

func (m *Machine) apply(ev Event) {
	out := Transition(m.state, ev, m.env())
	if out.Entered {
		from := m.state.Name()
		m.exit()
		m.state = out.Next
		m.enter()
		m.record(models.EventTransition, string(from)+" -> "+string(m.state.Name()),
			map[string]any{"from": from, "to": m.state.Name()})
	} else {
		m.state = out.Next
	}
	for _, eff := range out.Effects {
		m.execute(eff)
	}
	if !out.Entered && m.phase == 2 {
		m.narrateEntry()
	}
	m.publish()
}

func (m *Machine) env() Env {
	return Env{
		Flow:              m.cfg.Flow,
		Stats:             m.stats,
		Sessions:          m.sessions,
		Now:               m.cfg.Now().UTC(),
		InterventionEvery: m.cfg.InterventionEvery,
	}
}

// enter starts a new epoch for the current state and arms its reveal timer.
func (m *Machine) enter() {
	m.epoch++
	m.phase = 1
	m.spoken = false
	m.stateCtx, m.stateCancel = context.WithCancel(m.runCtx)
	epoch, ctx := m.epoch, m.stateCtx
	m.reveal = time.AfterFunc(m.cfg.RevealDelay, func() {
		m.post(ctx, revealMsg{epoch: epoch})
	})
}

// startWriter drains queued store writes in order. Writes outlive ctx so a
// shutdown does not drop a session that was already submitted.
func (m *Machine) startWriter() <-chan struct{} {
	done := make(chan struct{})
	ctx := context.WithoutCancel(m.runCtx)
	go func() {
		defer close(done)
		for write := range m.writes {
			write(ctx)
		}
	}()
	return done
}

// exit cancels everything owned by the current state and stops playback.
func (m *Machine) exit() {
	if m.stateCancel != nil {
		m.stateCancel()
	}
	if m.reveal != nil {
		m.reveal.Stop()
		m.reveal = nil
	}
	if m.stopRun != nil {
		m.stopRun()
		m.stopRun = nil
	}
	if m.cfg.Narrator != nil {
		m.cfg.Narrator.Stop()
	}
}

// narrateEntry speaks the state's line once per entry. A line that is still
// pending leaves the state unspoken so it can be spoken when it arrives.
func (m *Machine) narrateEntry() {
	if m.spoken {
		return
	}
	line, err := m.cfg.Script.Line(m.state, m.stats)
	if err != nil {
		m.log.Warnw("narration_line_failed", "state", m.state.Name(), "err", err)
		m.spoken = true
		return
	}
	if line == "" {
		return
	}
	m.spoken = true
	m.speak(line, models.EventNarration)
}

func (m *Machine) speak(text, kind string) {
	if m.cfg.Narrator == nil {
		return
	}
	ctx, state := m.stateCtx, m.state.Name()
	go func() {
		if m.cfg.Narrator.Speak(ctx, text) {
			m.record(kind, text, map[string]any{"state": state})
		}
	}()
}

// post delivers a message from a task goroutine unless ctx or the machine ends first.
func (m *Machine) post(ctx context.Context, msg any) {
	select {
	case m.inbox <- msg:
	case <-ctx.Done():
	case <-m.done:
	}
}

func (m *Machine) publish() {
	line, _ := m.cfg.Script.Line(m.state, m.stats)
	m.mu.Lock()
	m.snap = Snapshot{
		Flow:      m.cfg.Flow,
		State:     m.state.Name(),
		Payload:   m.state,
		Phase:     m.phase,
		Epoch:     m.epoch,
		Line:      line,
		Stats:     m.stats,
		Narration: m.snap.Narration,
		UpdatedAt: m.cfg.Now().UTC(),
	}
	if m.cfg.Narrator != nil {
		m.snap.Narration = m.cfg.Narrator.Status()
	}
	snap := m.snap
	obs := m.observerList()
	m.mu.Unlock()
	for _, fn := range obs {
		fn(snap)
	}
}

func (m *Machine) observerList() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.observers))
	for _, fn := range m.observers {
		out = append(out, fn)
	}
	return out
}

func (m *Machine) record(typ, description string, meta map[string]any) {
	if m.cfg.Journal == nil {
		return
	}
	m.cfg.Journal.Record(context.WithoutCancel(m.runCtx), typ, description, meta)
}

// watchSessions subscribes to the user's session document once the identity
// is ready, retrying until ctx ends.
func (m *Machine) watchSessions(ctx context.Context) func() {
	if m.cfg.Store == nil || m.cfg.Identity == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(identityRetryInterval)
		defer t.Stop()
		for {
			if uid, ok := m.cfg.Identity.User(ctx); ok {
				stop, err := m.cfg.Store.Subscribe(ctx, uid, func(s []models.SessionData) {
					m.post(ctx, sessionsMsg{sessions: s})
				})
				if err == nil {
					<-ctx.Done()
					stop()
					return
				}
				m.log.Warnw("session_subscribe_failed", "user_id", uid, "err", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
