package models

// Temperature bounds accepted for a sauna session (°C).
const (
	MinTemperatureC = 60
	MaxTemperatureC = 100
)

// Defaults used by the onboarding flows.
const (
	DefaultTimerMinutes    = 15
	DefaultTemperatureC    = 75
	MaxTimerMinutes        = 60
	ExperimentDefaultTimer = 20
	ExperimentDefaultTempC = 80
)

// SaunaSettings is what a session runs with.
type SaunaSettings struct {
	TimerMinutes       int  `json:"timer_minutes"`
	TemperatureCelsius int  `json:"temperature_c"`
	MusicEnabled       bool `json:"music_enabled"`
}

// DefaultSettings is the beginner configuration: 15 minutes at 75 °C without music.
func DefaultSettings() SaunaSettings {
	return SaunaSettings{
		TimerMinutes:       DefaultTimerMinutes,
		TemperatureCelsius: DefaultTemperatureC,
		MusicEnabled:       false,
	}
}

// Normalize clamps the settings into the supported ranges.
// Out-of-range input is corrected, never rejected.
func (s SaunaSettings) Normalize() SaunaSettings {
	if s.TimerMinutes <= 0 {
		s.TimerMinutes = DefaultTimerMinutes
	}
	if s.TimerMinutes > MaxTimerMinutes {
		s.TimerMinutes = MaxTimerMinutes
	}
	s.TemperatureCelsius = ClampTemperature(s.TemperatureCelsius)
	return s
}

// ClampTemperature keeps t within [MinTemperatureC, MaxTemperatureC].
func ClampTemperature(t int) int {
	if t < MinTemperatureC {
		return MinTemperatureC
	}
	if t > MaxTemperatureC {
		return MaxTemperatureC
	}
	return t
}
