package companion

import "sensai/internal/models"

// Effect is a side effect requested by a transition. Effects are bound to
// the state that is current after the transition.
type Effect interface {
	isEffect()
}

type (
	// StartRun starts the countdown, the sensor feed and sets the device target.
	StartRun struct{ Settings models.SaunaSettings }
	// Speak narrates text right away, outside the state's entry line.
	Speak struct{ Text string }
	// Persist appends a session to the user's document.
	Persist struct{ Session models.SessionData }
	// Recommend asks the advisor for text; the answer arrives as RecommendationReady.
	Recommend struct {
		Purpose  Purpose
		Session  models.SessionData
		Settings models.SaunaSettings
	}
	// Intervene asks the advisor whether a mid-session message is needed.
	Intervene struct {
		Settings models.SaunaSettings
		Sample   models.SensorRecord
	}
	// ClearData wipes local statistics and requests a remote reset.
	ClearData struct{}
	// PublishStats replaces the local statistics projection.
	PublishStats struct{ Stats models.Stats }
)

func (StartRun) isEffect()     {}
func (Speak) isEffect()        {}
func (Persist) isEffect()      {}
func (Recommend) isEffect()    {}
func (Intervene) isEffect()    {}
func (ClearData) isEffect()    {}
func (PublishStats) isEffect() {}
