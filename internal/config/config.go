package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sensai/internal/companion"
)

// EnvPrefix prefixes every environment override, e.g. SENSAI_OPENAI_API_KEY.
const EnvPrefix = "SENSAI"

// Flow and mode values accepted by the loader.
const (
	FlowClassic = "classic"
	FlowCoached = "coached"

	SensorSimulated = "simulated"
	SensorRemote    = "remote"

	NarrationGemini     = "gemini"
	NarrationElevenLabs = "elevenlabs"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Companion CompanionConfig `mapstructure:"companion"`
	Sensor    SensorConfig    `mapstructure:"sensor"`
	Harvia    HarviaConfig    `mapstructure:"harvia"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Narration NarrationConfig `mapstructure:"narration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type CompanionConfig struct {
	Flow              string        `mapstructure:"flow"`
	RevealDelay       time.Duration `mapstructure:"reveal_delay"`
	Tick              time.Duration `mapstructure:"tick"`
	InterventionEvery int           `mapstructure:"intervention_every"`
	// Script optionally overrides narration lines; empty keeps the built-in catalog.
	Script string `mapstructure:"script"`
}

type SensorConfig struct {
	Mode          string        `mapstructure:"mode"`
	SimulatedTick time.Duration `mapstructure:"simulated_tick"`
	RemoteTick    time.Duration `mapstructure:"remote_tick"`
	DeviceID      string        `mapstructure:"device_id"`
}

type HarviaConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type NarrationConfig struct {
	Provider          string `mapstructure:"provider"`
	Enabled           bool   `mapstructure:"enabled"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiVoice       string `mapstructure:"gemini_voice"`
	ElevenLabsAPIKey  string `mapstructure:"elevenlabs_api_key"`
	ElevenLabsVoiceID string `mapstructure:"elevenlabs_voice_id"`
}

var defaults = map[string]any{
	"port":       "8080",
	"log.level":  "info",
	"log.format": "console",
	"db.path":    "sensai.db",

	"auth.signing_key": "",
	"auth.token_ttl":   12 * time.Hour,

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"mqtt.broker":       "",
	"mqtt.client_id":    "sensai",
	"mqtt.username":     "",
	"mqtt.password":     "",
	"mqtt.topic_prefix": "sensai",

	"companion.flow":               FlowClassic,
	"companion.reveal_delay":       companion.DefaultRevealDelay,
	"companion.tick":               companion.DefaultTickInterval,
	"companion.intervention_every": companion.DefaultInterventionEvery,
	"companion.script":             "",

	"sensor.mode":           SensorSimulated,
	"sensor.simulated_tick": 3 * time.Second,
	"sensor.remote_tick":    5 * time.Second,
	"sensor.device_id":      "",

	"harvia.base_url":  "",
	"harvia.email":     "",
	"harvia.password":  "",
	"harvia.token_ttl": 50 * time.Minute,

	"openai.base_url": "",
	"openai.api_key":  "",
	"openai.model":    "",

	"narration.provider":            NarrationGemini,
	"narration.enabled":             true,
	"narration.gemini_api_key":      "",
	"narration.gemini_voice":        "Kore",
	"narration.elevenlabs_api_key":  "",
	"narration.elevenlabs_voice_id": "",
}

// Load reads path (or configs/config.yml when path is empty), applies
// SENSAI_* environment overrides and blanks out placeholder secrets.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.clearPlaceholders()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects enum values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Companion.Flow {
	case FlowClassic, FlowCoached:
	default:
		return fmt.Errorf("companion.flow must be %q or %q, got %q", FlowClassic, FlowCoached, c.Companion.Flow)
	}
	switch c.Sensor.Mode {
	case SensorSimulated, SensorRemote:
	default:
		return fmt.Errorf("sensor.mode must be %q or %q, got %q", SensorSimulated, SensorRemote, c.Sensor.Mode)
	}
	switch c.Narration.Provider {
	case NarrationGemini, NarrationElevenLabs:
	default:
		return fmt.Errorf("narration.provider must be %q or %q, got %q", NarrationGemini, NarrationElevenLabs, c.Narration.Provider)
	}
	if c.Companion.InterventionEvery < 0 {
		return fmt.Errorf("companion.intervention_every must not be negative")
	}
	return nil
}

func (c *Config) clearPlaceholders() {
	for _, s := range []*string{
		&c.Auth.SigningKey,
		&c.Redis.Addr,
		&c.Redis.Password,
		&c.MQTT.Broker,
		&c.MQTT.Password,
		&c.Sensor.DeviceID,
		&c.Harvia.Email,
		&c.Harvia.Password,
		&c.OpenAI.APIKey,
		&c.Narration.GeminiAPIKey,
		&c.Narration.ElevenLabsAPIKey,
		&c.Narration.ElevenLabsVoiceID,
	} {
		if IsPlaceholder(*s) {
			*s = ""
		}
	}
}

// IsPlaceholder reports whether v is empty or a sample value such as
// "your-api-key" or "token-here".
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	return strings.HasPrefix(v, "your-") || strings.HasPrefix(v, "your_") ||
		strings.HasSuffix(v, "-here") || strings.HasSuffix(v, "_here")
}

// HarviaConfigured reports whether the vendor cloud can be reached.
func (c *Config) HarviaConfigured() bool {
	return c.Harvia.Email != "" && c.Harvia.Password != ""
}

// NarrationConfigured reports whether the selected provider has a key.
func (c *Config) NarrationConfigured() bool {
	if c.Narration.Provider == NarrationElevenLabs {
		return c.Narration.ElevenLabsAPIKey != "" && c.Narration.ElevenLabsVoiceID != ""
	}
	return c.Narration.GeminiAPIKey != ""
}
