package coach

import (
	"context"
	"fmt"
	"strings"

	"sensai/internal/logger"
	"sensai/internal/models"
)

// Advisor produces every piece of coaching text the companion narrates.
// Implementations never fail: they always return usable text, possibly empty
// for Intervention, which means "nothing to say".
type Advisor interface {
	SessionAdvice(ctx context.Context, s models.SessionData) string
	OnboardingAdvice(ctx context.Context) string
	SessionIntro(ctx context.Context, settings models.SaunaSettings) string
	Intervention(ctx context.Context, settings models.SaunaSettings, sample models.SensorRecord) string
}

// OnboardingPlatitude is what a newcomer hears when no delegate is available.
const OnboardingPlatitude = "Start gently: ten to fifteen minutes at around 75°C is plenty. " +
	"Drink water before and after, and step out whenever you feel uncomfortable."

// overheatMarginC is how far above target a sample must be before the local
// advisor interrupts the session.
const overheatMarginC = 5.0

// Local is the deterministic advisor. It is also the fallback of Remote.
type Local struct{}

func (Local) SessionAdvice(_ context.Context, s models.SessionData) string {
	return Recommend(s)
}

func (Local) OnboardingAdvice(context.Context) string {
	return OnboardingPlatitude
}

func (Local) SessionIntro(_ context.Context, st models.SaunaSettings) string {
	return fmt.Sprintf("Your sauna is set to %d°C for %d minutes. Settle in, breathe slowly, and enjoy the warmth.",
		st.TemperatureCelsius, st.TimerMinutes)
}

func (Local) Intervention(_ context.Context, st models.SaunaSettings, sample models.SensorRecord) string {
	if sample.Temperature >= float64(st.TemperatureCelsius)+overheatMarginC {
		return fmt.Sprintf("It is %.0f°C now, warmer than planned. Slow your breathing, and step out if you feel light-headed.",
			sample.Temperature)
	}
	return ""
}

// Completer is the chat-completion delegate.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Remote asks a chat-completion delegate first and falls back to Local.
type Remote struct {
	chat     Completer
	fallback Local
	log      *logger.Logger
}

// NewRemote wraps a delegate. A nil delegate behaves exactly like Local.
func NewRemote(chat Completer, log *logger.Logger) *Remote {
	if log == nil {
		log = logger.Nop()
	}
	return &Remote{chat: chat, log: log}
}

// noInterventionToken is what the delegate answers when nothing needs saying.
const noInterventionToken = "NONE"

func (r *Remote) ask(ctx context.Context, kind, user string) (string, bool) {
	if r.chat == nil {
		return "", false
	}
	text, err := r.chat.Complete(ctx, Persona, user)
	if err != nil {
		r.log.Warnw("coach_delegate_failed", "kind", kind, "err", err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.log.Warnw("coach_delegate_empty", "kind", kind)
		return "", false
	}
	return text, true
}

func (r *Remote) SessionAdvice(ctx context.Context, s models.SessionData) string {
	if text, ok := r.ask(ctx, "session_advice", sessionPrompt(s)); ok {
		return text
	}
	return r.fallback.SessionAdvice(ctx, s)
}

func (r *Remote) OnboardingAdvice(ctx context.Context) string {
	if text, ok := r.ask(ctx, "onboarding", onboardingPrompt); ok {
		return text
	}
	return r.fallback.OnboardingAdvice(ctx)
}

func (r *Remote) SessionIntro(ctx context.Context, st models.SaunaSettings) string {
	if text, ok := r.ask(ctx, "intro", introPrompt(st)); ok {
		return text
	}
	return r.fallback.SessionIntro(ctx, st)
}

func (r *Remote) Intervention(ctx context.Context, st models.SaunaSettings, sample models.SensorRecord) string {
	text, ok := r.ask(ctx, "intervention", interventionPrompt(st, sample))
	if !ok {
		return r.fallback.Intervention(ctx, st, sample)
	}
	if strings.EqualFold(strings.Trim(text, ". "), noInterventionToken) {
		return ""
	}
	return text
}
