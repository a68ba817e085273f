package coach

import (
	"fmt"
	"strings"

	"sensai/internal/models"
)

// Persona is the fixed system instruction sent with every delegate call.
const Persona = "You are SensAI, a warm and calm sauna wellness coach. " +
	"Speak directly to the user in at most three short sentences. " +
	"Never give medical diagnoses. Temperatures are in Celsius and must stay between 60 and 100."

const onboardingPrompt = "The user is new to sauna bathing and has chosen a beginner session at 75°C. " +
	"Give them a short, encouraging introduction with one or two practical tips."

func sessionPrompt(s models.SessionData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user just finished a sauna session: %s.", s.String())
	if t := strings.TrimSpace(s.Thoughts); t != "" {
		fmt.Fprintf(&b, " Their thoughts: %q.", t)
	}
	if n := len(s.SensorHistory); n > 0 {
		last := s.SensorHistory[n-1]
		fmt.Fprintf(&b, " Final sensor snapshot: %.0f°C, %.0f%% humidity.", last.Temperature, last.Humidity)
	}
	b.WriteString(" Recommend temperature, duration and oil adjustments for the next session.")
	return b.String()
}

func introPrompt(st models.SaunaSettings) string {
	music := "without music"
	if st.MusicEnabled {
		music = "with music"
	}
	return fmt.Sprintf("The user is about to start a %d minute session at %d°C %s. Welcome them into it.",
		st.TimerMinutes, st.TemperatureCelsius, music)
}

func interventionPrompt(st models.SaunaSettings, sample models.SensorRecord) string {
	return fmt.Sprintf("Mid-session reading: %.0f°C and %.0f%% humidity, target %d°C. "+
		"If the user needs a short check-in, say it. Otherwise answer exactly %s.",
		sample.Temperature, sample.Humidity, st.TemperatureCelsius, noInterventionToken)
}
