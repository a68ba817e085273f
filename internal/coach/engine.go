// Package coach turns session feedback into advice. The rules here are pure and
// deterministic; Remote layers a chat-completion delegate on top and falls back
// to them on any failure.
package coach

import (
	"fmt"
	"strings"

	"sensai/internal/models"
)

// Thresholds of the temperature and duration rules.
const (
	lowerHeatAbove   = 65
	raiseHeatBelow   = 95
	heatStep         = 2
	lowRatingBelow   = 7
	greatRatingAbove = 7
	oilHintBelow     = 8
	shortTimerBelow  = 20
	timerStep        = 5
)

const recommendationPrefix = "For your next session, "

// Recommend builds the three-part advice for a finished session.
func Recommend(s models.SessionData) string {
	var b strings.Builder
	b.WriteString(recommendationPrefix)
	b.WriteString(temperatureAdvice(s))
	b.WriteString(durationAdvice(s))
	b.WriteString(oilAdvice(s))
	return strings.TrimSpace(b.String())
}

// SuggestedTemperature is the temperature the advice points at.
// It never leaves [MinTemperatureC, MaxTemperatureC].
func SuggestedTemperature(s models.SessionData) int {
	t := s.TemperatureCelsius
	switch {
	case s.Heat == models.HeatTooHot && t > lowerHeatAbove:
		return models.ClampTemperature(t - heatStep)
	case s.Heat == models.HeatTooCold && t < raiseHeatBelow:
		return models.ClampTemperature(t + heatStep)
	case s.Rating < lowRatingBelow:
		return models.ClampTemperature(t + 1)
	default:
		return models.ClampTemperature(t)
	}
}

func temperatureAdvice(s models.SessionData) string {
	t := s.TemperatureCelsius
	next := SuggestedTemperature(s)
	switch {
	case next == t:
		return fmt.Sprintf("the temperature of %d°C seems good for you. ", t)
	case s.Heat == models.HeatTooHot && t > lowerHeatAbove:
		return fmt.Sprintf("try lowering the temperature to %d°C. ", next)
	case s.Heat == models.HeatTooCold && t < raiseHeatBelow:
		return fmt.Sprintf("try increasing the temperature to %d°C. ", next)
	default:
		return fmt.Sprintf("let's adjust the temperature to %d°C. ", next)
	}
}

func durationAdvice(s models.SessionData) string {
	if s.Rating > greatRatingAbove {
		music := "without music"
		if s.MusicEnabled {
			music = "with music"
		}
		return fmt.Sprintf("Your duration of %d minutes %s was a great combination. ", s.TimerMinutes, music)
	}
	if s.TimerMinutes < shortTimerBelow {
		return fmt.Sprintf("You might enjoy a slightly longer session of %d minutes. ", s.TimerMinutes+timerStep)
	}
	return ""
}

func oilAdvice(s models.SessionData) string {
	if ValidOil(s.Oil) {
		a, b := RelatedOils(s.Oil)
		return fmt.Sprintf("Since you enjoyed %s, you might also like %s or %s.", strings.TrimSpace(s.Oil), a, b)
	}
	if s.Rating < oilHintBelow {
		return "Consider adding a few drops of Eucalyptus or Peppermint oil to the water for a more refreshing experience."
	}
	return ""
}

// RecommendedSettings derives the settings offered to a returning user
// from their last session. Without history it returns the beginner defaults.
func RecommendedSettings(last *models.SessionData) models.SaunaSettings {
	if last == nil {
		return models.DefaultSettings()
	}
	t := last.TemperatureCelsius
	switch last.Heat {
	case models.HeatTooHot:
		t -= heatStep
	case models.HeatTooCold:
		t += heatStep
	}
	timer := last.TimerMinutes
	if timer <= 0 {
		timer = models.DefaultTimerMinutes
	}
	return models.SaunaSettings{
		TimerMinutes:       timer,
		TemperatureCelsius: models.ClampTemperature(t),
		MusicEnabled:       last.MusicEnabled,
	}
}

// goalProfile maps goal keywords to a starting configuration.
type goalProfile struct {
	keywords []string
	settings models.SaunaSettings
}

var goalProfiles = []goalProfile{
	{[]string{"relax", "calm", "stress", "sleep", "unwind"}, models.SaunaSettings{TimerMinutes: 15, TemperatureCelsius: 70, MusicEnabled: true}},
	{[]string{"detox", "sweat", "intense", "challenge"}, models.SaunaSettings{TimerMinutes: 20, TemperatureCelsius: 85}},
	{[]string{"recover", "muscle", "sore", "workout", "training"}, models.SaunaSettings{TimerMinutes: 15, TemperatureCelsius: 80}},
	{[]string{"social", "friends", "chat"}, models.SaunaSettings{TimerMinutes: 25, TemperatureCelsius: 75, MusicEnabled: true}},
}

// SettingsForGoal picks settings for an experienced user's stated goal.
// Unknown goals start from the last session, or the experiment defaults.
func SettingsForGoal(goal string, last *models.SessionData) models.SaunaSettings {
	g := strings.ToLower(goal)
	for _, p := range goalProfiles {
		for _, k := range p.keywords {
			if strings.Contains(g, k) {
				return p.settings
			}
		}
	}
	if last != nil {
		return RecommendedSettings(last)
	}
	return models.SaunaSettings{
		TimerMinutes:       models.ExperimentDefaultTimer,
		TemperatureCelsius: models.ExperimentDefaultTempC,
	}
}
