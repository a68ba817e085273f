package companion

import "sensai/internal/models"

// Event is anything that can move the companion. The set is closed.
type Event interface {
	isEvent()
}

// Choice options.
const (
	OptionNew         = "new"
	OptionExperiment  = "experiment"
	OptionRecommended = "recommended"
	OptionExperienced = "experienced"
)

// Purpose tags a recommendation request and its result.
type Purpose string

const (
	PurposeOnboarding   Purpose = "onboarding"
	PurposeIntro        Purpose = "intro"
	PurposeSession      Purpose = "session"
	PurposeIntervention Purpose = "intervention"
)

type (
	Start          struct{}
	Advance        struct{}
	Back           struct{}
	Choose         struct{ Option string }
	Answer         struct{ Yes bool }
	SubmitGoal     struct{ Goal string }
	SubmitSettings struct{ Settings models.SaunaSettings }
	Tick           struct{}
	SensorSample   struct{ Record models.SensorRecord }
	EndSession     struct{}
	SubmitFeedback struct{ Feedback models.Feedback }
	Cancel         struct{}
	Reset          struct{}

	// RecommendationReady carries the text produced for an earlier
	// Recommend or Intervene effect.
	RecommendationReady struct {
		Purpose Purpose
		Text    string
	}
)

func (Start) isEvent()               {}
func (Advance) isEvent()             {}
func (Back) isEvent()                {}
func (Choose) isEvent()              {}
func (Answer) isEvent()              {}
func (SubmitGoal) isEvent()          {}
func (SubmitSettings) isEvent()      {}
func (Tick) isEvent()                {}
func (SensorSample) isEvent()        {}
func (EndSession) isEvent()          {}
func (SubmitFeedback) isEvent()      {}
func (Cancel) isEvent()              {}
func (Reset) isEvent()               {}
func (RecommendationReady) isEvent() {}
