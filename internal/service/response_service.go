package service

import (
	"time"

	"sensai/internal/coach"
	"sensai/internal/companion"
	"sensai/internal/narration"
	"sensai/internal/pubsub"
	"sensai/internal/sensor"
)

// LogFilter supports journal filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "TRANSITION", "NARRATION", "INTERVENTION", "SESSION_SAVED", "RESET", "ERROR"
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// CompanionConfig tunes every user's companion runtime.
type CompanionConfig struct {
	Flow              companion.Flow
	RevealDelay       time.Duration
	TickInterval      time.Duration
	InterventionEvery int
	NarrationEnabled  bool
	Script            *companion.Script
	TelemetryPrefix   string
}

// Deps are the collaborators shared by all users. Synth, Device and
// Telemetry may be nil; the companion degrades to silence, no device
// control and no telemetry mirror respectively.
type Deps struct {
	Auth      AuthConfig
	Companion CompanionConfig
	Notifier  pubsub.Notifier
	Advisor   coach.Advisor
	Feed      sensor.Feed
	Telemetry sensor.Publisher
	Synth     narration.Synthesizer
	Device    TargetSetter
	DeviceID  string
}
