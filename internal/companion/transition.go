package companion

import (
	"time"

	"sensai/internal/coach"
	"sensai/internal/models"
	"sensai/internal/stats"
)

// Env is the read-only context a transition sees.
type Env struct {
	Flow              Flow
	Stats             models.Stats
	Sessions          []models.SessionData
	Now               time.Time
	InterventionEvery int
}

// Outcome is the result of applying one event.
// Entered is true when Next is a fresh entry, even into a state of the same name.
type Outcome struct {
	Next    State
	Entered bool
	Effects []Effect
}

func stay(s State) Outcome {
	return Outcome{Next: s}
}

func update(s State, effects ...Effect) Outcome {
	return Outcome{Next: s, Effects: effects}
}

func enter(s State, effects ...Effect) Outcome {
	return Outcome{Next: s, Entered: true, Effects: effects}
}

// minRecommendedSessions is the history needed before the classic flow
// offers recommended settings.
const minRecommendedSessions = 2

// Newbie durations.
const (
	newbieShortTimer = 10
	newbieLongTimer  = 15
)

// Transition applies ev to s. It is pure; pairs it does not know are no-ops.
func Transition(s State, ev Event, env Env) Outcome {
	if _, ok := ev.(Reset); ok {
		return enter(env.Flow.Initial(), ClearData{})
	}

	switch st := s.(type) {
	// classic
	case WelcomeState:
		return fromWelcome(st, ev, env)
	case NewUserOnboardingState:
		return fromSettings(st, ev, WelcomeState{}, newbieSettings)
	case ExperimentSettingsState:
		return fromSettings(st, ev, WelcomeState{}, normalized)
	case RecommendedSettingsState:
		return fromSettings(st, ev, WelcomeState{}, normalized)
	case SessionTimerState:
		return fromRun(st, st.Run, ev, env, func(r Run) State { return SessionTimerState{Run: r} })
	case FeedbackFormState:
		return fromFeedbackForm(st, ev, env)
	case StatsDisplayState:
		if _, ok := ev.(Advance); ok {
			return enter(GoodbyeState{Recommendation: st.Recommendation})
		}
	case GoodbyeState:
		if _, ok := ev.(Advance); ok {
			return enter(WelcomeState{})
		}

	// coached
	case StartPointState:
		if _, ok := ev.(Start); ok {
			return enter(WelcomeNarrationState{})
		}
	case WelcomeNarrationState:
		if _, ok := ev.(Advance); ok {
			return enter(TransitionState{})
		}
	case TransitionState:
		if _, ok := ev.(Advance); ok {
			return enter(FollowUpQuestionState{})
		}
	case FollowUpQuestionState:
		return fromFollowUp(st, ev)
	case OnboardingChoiceState:
		return fromOnboardingChoice(st, ev, env)
	case NewbieRecommendationsState:
		return fromNewbie(st, ev)
	case ExperiencedGoalCaptureState:
		switch e := ev.(type) {
		case SubmitGoal:
			return enter(ExperiencedSettingsState{Goal: e.Goal, Defaults: coach.SettingsForGoal(e.Goal, env.Stats.LastSession)})
		case Back:
			return enter(OnboardingChoiceState{})
		}
	case ExperiencedSettingsState:
		switch e := ev.(type) {
		case SubmitSettings:
			return enter(SaunaReadyState{Settings: e.Settings.Normalize()})
		case Back:
			return enter(OnboardingChoiceState{})
		}
	case SaunaReadyState:
		if _, ok := ev.(Advance); ok {
			return enter(GeneratingState{Settings: st.Settings}, Recommend{Purpose: PurposeIntro, Settings: st.Settings})
		}
	case GeneratingState:
		if e, ok := ev.(RecommendationReady); ok && e.Purpose == PurposeIntro {
			return enter(ActiveSessionState{Run: newRun(st.Settings), Intro: e.Text}, StartRun{Settings: st.Settings})
		}
	case ActiveSessionState:
		return fromRun(st, st.Run, ev, env, func(r Run) State { return ActiveSessionState{Run: r, Intro: st.Intro} })
	case PostSessionPromptState:
		if _, ok := ev.(Advance); ok {
			return enter(FeedbackQuestionsState{Ended: st.Ended, Draft: models.DefaultFeedback()})
		}
	case FeedbackQuestionsState:
		switch e := ev.(type) {
		case SubmitFeedback:
			pending := models.NewSessionData(st.Settings, e.Feedback, st.History, env.Now)
			return enter(AskShowStatsState{Pending: pending})
		case Cancel:
			return enter(StartPointState{})
		}
	case AskShowStatsState:
		if e, ok := ev.(Answer); ok {
			pending := st.Pending
			pending.ShowStats = e.Yes
			if e.Yes {
				return enter(ShowStatsState{Pending: pending, Projected: project(env, pending)})
			}
			return enter(AskRecommendationsState{Pending: pending})
		}
	case ShowStatsState:
		if _, ok := ev.(Advance); ok {
			return enter(AskRecommendationsState{Pending: st.Pending})
		}
	case AskRecommendationsState:
		if e, ok := ev.(Answer); ok {
			session := st.Pending
			session.RecommendationsRequested = e.Yes
			projected := project(env, session)
			if e.Yes {
				return enter(ShowRecommendationsState{Session: session},
					Persist{Session: session},
					PublishStats{Stats: projected},
					Recommend{Purpose: PurposeSession, Session: session, Settings: session.SaunaSettings})
			}
			return enter(SummaryState{Session: session}, Persist{Session: session}, PublishStats{Stats: projected})
		}
	case ShowRecommendationsState:
		switch e := ev.(type) {
		case RecommendationReady:
			if e.Purpose == PurposeSession && st.Text == "" {
				st.Text = e.Text
				return update(st, PublishStats{Stats: stats.WithRecommendation(env.Stats, e.Text)})
			}
		case Advance:
			return enter(SummaryState{Session: st.Session, Recommendation: st.Text})
		}
	case SummaryState:
		if _, ok := ev.(Advance); ok {
			return enter(StartPointState{})
		}
	}
	return stay(s)
}

func fromWelcome(s WelcomeState, ev Event, env Env) Outcome {
	c, ok := ev.(Choose)
	if !ok {
		return stay(s)
	}
	switch c.Option {
	case OptionNew:
		return enter(NewUserOnboardingState{Defaults: models.DefaultSettings()})
	case OptionExperiment:
		return enter(ExperimentSettingsState{Defaults: models.SaunaSettings{
			TimerMinutes:       models.ExperimentDefaultTimer,
			TemperatureCelsius: models.ExperimentDefaultTempC,
		}})
	case OptionRecommended:
		if env.Stats.TotalSessions >= minRecommendedSessions {
			return enter(RecommendedSettingsState{Defaults: coach.RecommendedSettings(env.Stats.LastSession)})
		}
	}
	return stay(s)
}

// fromSettings handles the three classic settings screens.
func fromSettings(s State, ev Event, back State, fix func(models.SaunaSettings) models.SaunaSettings) Outcome {
	switch e := ev.(type) {
	case SubmitSettings:
		settings := fix(e.Settings)
		return enter(SessionTimerState{Run: newRun(settings)}, StartRun{Settings: settings})
	case Back:
		return enter(back)
	}
	return stay(s)
}

func normalized(s models.SaunaSettings) models.SaunaSettings {
	return s.Normalize()
}

// newbieSettings fixes 75 °C without music and allows 10 or 15 minutes.
func newbieSettings(s models.SaunaSettings) models.SaunaSettings {
	timer := newbieLongTimer
	if s.TimerMinutes == newbieShortTimer {
		timer = newbieShortTimer
	}
	return models.SaunaSettings{TimerMinutes: timer, TemperatureCelsius: models.DefaultTemperatureC}
}

// fromRun handles both running screens. rebuild wraps an updated Run in the
// caller's state type.
func fromRun(s State, r Run, ev Event, env Env, rebuild func(Run) State) Outcome {
	switch e := ev.(type) {
	case Tick:
		r.Remaining--
		if r.Remaining <= 0 {
			return finishRun(s, r)
		}
		return update(rebuild(r))
	case EndSession:
		return finishRun(s, r)
	case SensorSample:
		h := make([]models.SensorRecord, len(r.History), len(r.History)+1)
		copy(h, r.History)
		r.History = append(h, e.Record)
		var effects []Effect
		if env.InterventionEvery > 0 && len(r.History)%env.InterventionEvery == 0 {
			effects = append(effects, Intervene{Settings: r.Settings, Sample: e.Record})
		}
		return update(rebuild(r), effects...)
	case RecommendationReady:
		if e.Purpose == PurposeIntervention && e.Text != "" {
			return update(s, Speak{Text: e.Text})
		}
	}
	return stay(s)
}

func finishRun(s State, r Run) Outcome {
	ended := Ended{Settings: r.Settings, History: r.History}
	if ended.History == nil {
		ended.History = []models.SensorRecord{}
	}
	if _, ok := s.(ActiveSessionState); ok {
		return enter(PostSessionPromptState{Ended: ended})
	}
	return enter(FeedbackFormState{Ended: ended, Draft: models.DefaultFeedback()})
}

func fromFeedbackForm(s FeedbackFormState, ev Event, env Env) Outcome {
	switch e := ev.(type) {
	case SubmitFeedback:
		session := models.NewSessionData(s.Settings, e.Feedback, s.History, env.Now)
		projected := project(env, session)
		var rec string
		if session.RecommendationsRequested {
			rec = coach.Recommend(session)
			projected = stats.WithRecommendation(projected, rec)
		}
		effects := []Effect{PublishStats{Stats: projected}, Persist{Session: session}}
		if session.ShowStats {
			return enter(StatsDisplayState{Recommendation: rec}, effects...)
		}
		return enter(GoodbyeState{Recommendation: rec}, effects...)
	case Cancel:
		return enter(WelcomeState{})
	}
	return stay(s)
}

func fromFollowUp(s FollowUpQuestionState, ev Event) Outcome {
	if c, ok := ev.(Choose); ok {
		switch c.Option {
		case OptionNew:
			return enter(NewbieRecommendationsState{Defaults: models.DefaultSettings()}, Recommend{Purpose: PurposeOnboarding})
		case OptionExperienced:
			return enter(OnboardingChoiceState{})
		}
	}
	return stay(s)
}

func fromOnboardingChoice(s OnboardingChoiceState, ev Event, env Env) Outcome {
	switch e := ev.(type) {
	case Choose:
		switch e.Option {
		case OptionRecommended:
			return enter(ExperiencedSettingsState{Defaults: coach.RecommendedSettings(env.Stats.LastSession)})
		case OptionExperiment:
			return enter(ExperiencedGoalCaptureState{})
		}
	case Back:
		return enter(FollowUpQuestionState{})
	}
	return stay(s)
}

func fromNewbie(s NewbieRecommendationsState, ev Event) Outcome {
	switch e := ev.(type) {
	case RecommendationReady:
		if e.Purpose == PurposeOnboarding && s.Advice == "" {
			s.Advice = e.Text
			return update(s)
		}
	case SubmitSettings:
		return enter(SaunaReadyState{Settings: newbieSettings(e.Settings)})
	case Back:
		return enter(FollowUpQuestionState{})
	}
	return stay(s)
}

// project is the statistics the user would have once session is stored.
func project(env Env, session models.SessionData) models.Stats {
	all := make([]models.SessionData, 0, len(env.Sessions)+1)
	all = append(all, env.Sessions...)
	all = append(all, session)
	return stats.Recompute(all)
}
