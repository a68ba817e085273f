package companion

import (
	"context"
	"time"

	"sensai/internal/models"
)

func (m *Machine) execute(eff Effect) {
	switch e := eff.(type) {
	case StartRun:
		m.startRun(e.Settings)
	case Speak:
		m.speak(e.Text, models.EventIntervention)
	case Persist:
		m.persist(e.Session)
	case Recommend:
		m.recommend(e)
	case Intervene:
		m.intervene(e)
	case ClearData:
		m.clearData()
	case PublishStats:
		m.stats = e.Stats
	default:
		m.log.Warnw("companion_unknown_effect", "effect", eff)
	}
}

// startRun binds the countdown, the sensor feed and the device target to the
// current state.
func (m *Machine) startRun(settings models.SaunaSettings) {
	ctx, epoch := m.stateCtx, m.epoch

	tickCtx, cancelTick := context.WithCancel(ctx)
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		t := time.NewTicker(m.cfg.TickInterval)
		defer t.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-t.C:
				m.post(tickCtx, taskMsg{ev: Tick{}, epoch: epoch})
			}
		}
	}()

	stopFeed := func() {}
	if m.cfg.Feed != nil {
		stopFeed = m.cfg.Feed.Start(ctx, settings.TimerMinutes, settings.TemperatureCelsius, func(rec models.SensorRecord) {
			m.post(ctx, taskMsg{ev: SensorSample{Record: rec}, epoch: epoch})
		})
	}

	if m.cfg.Device != nil {
		go func() {
			if err := m.cfg.Device.SetTarget(context.WithoutCancel(ctx), settings.TemperatureCelsius); err != nil {
				m.log.Warnw("device_target_failed", "target_c", settings.TemperatureCelsius, "err", err)
			}
		}()
	}

	m.stopRun = func() {
		cancelTick()
		<-tickDone
		stopFeed()
	}
}

func (m *Machine) persist(s models.SessionData) {
	all := make([]models.SessionData, 0, len(m.sessions)+1)
	all = append(all, m.sessions...)
	m.sessions = append(all, s)

	uid, ok := m.user()
	if !ok || m.cfg.Store == nil {
		m.log.Warnw("session_not_persisted", "reason", "identity not ready")
		return
	}
	m.writes <- func(ctx context.Context) {
		if err := m.cfg.Store.Append(ctx, uid, s); err != nil {
			m.log.Errorw("session_persist_failed", "user_id", uid, "err", err)
			m.record(models.EventError, "session could not be saved", map[string]any{"err": err.Error()})
			return
		}
		m.record(models.EventSessionSaved, s.String(), map[string]any{"rating": s.Rating})
	}
}

func (m *Machine) clearData() {
	m.stats = models.Stats{}
	m.sessions = nil
	m.record(models.EventReset, "all session data cleared", nil)

	uid, ok := m.user()
	if !ok || m.cfg.Store == nil {
		m.log.Warnw("reset_local_only", "reason", "identity not ready")
		return
	}
	m.writes <- func(ctx context.Context) {
		if err := m.cfg.Store.Reset(ctx, uid); err != nil {
			m.log.Errorw("session_reset_failed", "user_id", uid, "err", err)
		}
	}
}

func (m *Machine) recommend(r Recommend) {
	ctx, epoch := m.stateCtx, m.epoch
	advisor := m.cfg.Advisor
	go func() {
		call := context.WithoutCancel(ctx)
		var text string
		switch r.Purpose {
		case PurposeOnboarding:
			text = advisor.OnboardingAdvice(call)
		case PurposeIntro:
			text = advisor.SessionIntro(call, r.Settings)
		default:
			text = advisor.SessionAdvice(call, r.Session)
		}
		m.post(ctx, taskMsg{ev: RecommendationReady{Purpose: r.Purpose, Text: text}, epoch: epoch})
	}()
}

func (m *Machine) intervene(i Intervene) {
	ctx, epoch := m.stateCtx, m.epoch
	advisor := m.cfg.Advisor
	go func() {
		text := advisor.Intervention(context.WithoutCancel(ctx), i.Settings, i.Sample)
		if text == "" {
			return
		}
		m.post(ctx, taskMsg{ev: RecommendationReady{Purpose: PurposeIntervention, Text: text}, epoch: epoch})
	}()
}

func (m *Machine) user() (string, bool) {
	if m.cfg.Identity == nil {
		return "", false
	}
	return m.cfg.Identity.User(m.runCtx)
}
