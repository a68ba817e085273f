package companion

import "sensai/internal/models"

// StateName identifies a companion screen.
type StateName string

// Classic flow.
const (
	Welcome             StateName = "Welcome"
	NewUserOnboarding   StateName = "NewUserOnboarding"
	ExperimentSettings  StateName = "ExperimentSettings"
	RecommendedSettings StateName = "RecommendedSettings"
	SessionTimer        StateName = "SessionTimer"
	FeedbackForm        StateName = "FeedbackForm"
	StatsDisplay        StateName = "StatsDisplay"
	Goodbye             StateName = "Goodbye"
)

// Coached flow.
const (
	StartPoint             StateName = "StartPoint"
	WelcomeNarration       StateName = "WelcomeNarration"
	TransitionScreen       StateName = "Transition"
	FollowUpQuestion       StateName = "FollowUpQuestion"
	OnboardingChoice       StateName = "OnboardingChoice"
	NewbieRecommendations  StateName = "NewbieRecommendations"
	ExperiencedGoalCapture StateName = "ExperiencedGoalCapture"
	ExperiencedSettings    StateName = "ExperiencedSettings"
	SaunaReady             StateName = "SaunaReady"
	Generating             StateName = "Generating"
	ActiveSession          StateName = "ActiveSession"
	PostSessionPrompt      StateName = "PostSessionPrompt"
	FeedbackQuestions      StateName = "FeedbackQuestions"
	AskShowStats           StateName = "AskShowStats"
	ShowStats              StateName = "ShowStats"
	AskRecommendations     StateName = "AskRecommendations"
	ShowRecommendations    StateName = "ShowRecommendations"
	Summary                StateName = "Summary"
)

// State is one companion screen together with exactly the data it needs.
// The set of implementations is closed.
type State interface {
	Name() StateName
	isState()
}

// Run is the live part of a session: its settings, the seconds left on the
// countdown and the samples collected so far.
type Run struct {
	Settings  models.SaunaSettings  `json:"settings"`
	Remaining int                   `json:"remaining_seconds"`
	History   []models.SensorRecord `json:"sensor_history"`
}

func newRun(s models.SaunaSettings) Run {
	return Run{Settings: s, Remaining: s.TimerMinutes * 60, History: []models.SensorRecord{}}
}

// Ended is what a finished or abandoned run hands to feedback collection.
type Ended struct {
	Settings models.SaunaSettings  `json:"settings"`
	History  []models.SensorRecord `json:"sensor_history"`
}

type (
	WelcomeState struct{}

	NewUserOnboardingState struct {
		Defaults models.SaunaSettings `json:"defaults"`
	}
	ExperimentSettingsState struct {
		Defaults models.SaunaSettings `json:"defaults"`
	}
	RecommendedSettingsState struct {
		Defaults models.SaunaSettings `json:"defaults"`
	}
	SessionTimerState struct {
		Run
	}
	FeedbackFormState struct {
		Ended
		Draft models.Feedback `json:"draft"`
	}
	StatsDisplayState struct {
		Recommendation string `json:"recommendation,omitempty"`
	}
	GoodbyeState struct {
		Recommendation string `json:"recommendation,omitempty"`
	}

	StartPointState       struct{}
	WelcomeNarrationState struct{}
	TransitionState       struct{}
	FollowUpQuestionState struct{}
	OnboardingChoiceState struct{}

	NewbieRecommendationsState struct {
		Advice   string               `json:"advice,omitempty"`
		Defaults models.SaunaSettings `json:"defaults"`
	}
	ExperiencedGoalCaptureState struct{}
	ExperiencedSettingsState    struct {
		Goal     string               `json:"goal,omitempty"`
		Defaults models.SaunaSettings `json:"defaults"`
	}
	SaunaReadyState struct {
		Settings models.SaunaSettings `json:"settings"`
	}
	GeneratingState struct {
		Settings models.SaunaSettings `json:"settings"`
	}
	ActiveSessionState struct {
		Run
		Intro string `json:"intro,omitempty"`
	}
	PostSessionPromptState struct {
		Ended
	}
	FeedbackQuestionsState struct {
		Ended
		Draft models.Feedback `json:"draft"`
	}
	AskShowStatsState struct {
		Pending models.SessionData `json:"pending"`
	}
	ShowStatsState struct {
		Pending   models.SessionData `json:"pending"`
		Projected models.Stats       `json:"projected"`
	}
	AskRecommendationsState struct {
		Pending models.SessionData `json:"pending"`
	}
	ShowRecommendationsState struct {
		Session models.SessionData `json:"session"`
		Text    string             `json:"text,omitempty"`
	}
	SummaryState struct {
		Session        models.SessionData `json:"session"`
		Recommendation string             `json:"recommendation,omitempty"`
	}
)

func (WelcomeState) Name() StateName                { return Welcome }
func (NewUserOnboardingState) Name() StateName      { return NewUserOnboarding }
func (ExperimentSettingsState) Name() StateName     { return ExperimentSettings }
func (RecommendedSettingsState) Name() StateName    { return RecommendedSettings }
func (SessionTimerState) Name() StateName           { return SessionTimer }
func (FeedbackFormState) Name() StateName           { return FeedbackForm }
func (StatsDisplayState) Name() StateName           { return StatsDisplay }
func (GoodbyeState) Name() StateName                { return Goodbye }
func (StartPointState) Name() StateName             { return StartPoint }
func (WelcomeNarrationState) Name() StateName       { return WelcomeNarration }
func (TransitionState) Name() StateName             { return TransitionScreen }
func (FollowUpQuestionState) Name() StateName       { return FollowUpQuestion }
func (OnboardingChoiceState) Name() StateName       { return OnboardingChoice }
func (NewbieRecommendationsState) Name() StateName  { return NewbieRecommendations }
func (ExperiencedGoalCaptureState) Name() StateName { return ExperiencedGoalCapture }
func (ExperiencedSettingsState) Name() StateName    { return ExperiencedSettings }
func (SaunaReadyState) Name() StateName             { return SaunaReady }
func (GeneratingState) Name() StateName             { return Generating }
func (ActiveSessionState) Name() StateName          { return ActiveSession }
func (PostSessionPromptState) Name() StateName      { return PostSessionPrompt }
func (FeedbackQuestionsState) Name() StateName      { return FeedbackQuestions }
func (AskShowStatsState) Name() StateName           { return AskShowStats }
func (ShowStatsState) Name() StateName              { return ShowStats }
func (AskRecommendationsState) Name() StateName     { return AskRecommendations }
func (ShowRecommendationsState) Name() StateName    { return ShowRecommendations }
func (SummaryState) Name() StateName                { return Summary }

func (WelcomeState) isState()                {}
func (NewUserOnboardingState) isState()      {}
func (ExperimentSettingsState) isState()     {}
func (RecommendedSettingsState) isState()    {}
func (SessionTimerState) isState()           {}
func (FeedbackFormState) isState()           {}
func (StatsDisplayState) isState()           {}
func (GoodbyeState) isState()                {}
func (StartPointState) isState()             {}
func (WelcomeNarrationState) isState()       {}
func (TransitionState) isState()             {}
func (FollowUpQuestionState) isState()       {}
func (OnboardingChoiceState) isState()       {}
func (NewbieRecommendationsState) isState()  {}
func (ExperiencedGoalCaptureState) isState() {}
func (ExperiencedSettingsState) isState()    {}
func (SaunaReadyState) isState()             {}
func (GeneratingState) isState()             {}
func (ActiveSessionState) isState()          {}
func (PostSessionPromptState) isState()      {}
func (FeedbackQuestionsState) isState()      {}
func (AskShowStatsState) isState()           {}
func (ShowStatsState) isState()              {}
func (AskRecommendationsState) isState()     {}
func (ShowRecommendationsState) isState()    {}
func (SummaryState) isState()                {}
