package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "sensai/docs"
	"sensai/internal/coach"
	"sensai/internal/companion"
	"sensai/internal/config"
	"sensai/internal/handlers"
	"sensai/internal/harvia"
	"sensai/internal/kv"
	"sensai/internal/logger"
	"sensai/internal/narration"
	"sensai/internal/pubsub"
	"sensai/internal/repository"
	"sensai/internal/repository/db"
	"sensai/internal/sensor"
	"sensai/internal/server"
	"sensai/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	connectTimeout  = 5 * time.Second
	tokenKeyPrefix  = "sensai:harvia:"
	notifyPrefix    = "sensai:sessions:"
)

// @title                       SensAI companion API
// @version                     1.0
// @description                 Voice-guided sauna sessions: companion state, session history and recommendations.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the companion HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root := &cobra.Command{
		Use:          "sensai",
		Short:        "Voice-guided sauna session companion",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default configs/config.yml)")
	root.AddCommand(serve, newRecommendCmd())
	return root
}

func runServe(parent context.Context, cfgPath string) error {
	// console logger until the config says otherwise
	log := logger.Get(logger.InfoLevel)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Errorw("error reading config", "err", err)
		return err
	}
	log = logger.Configure(cfg.Log.Level, cfg.Log.Format)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(cfg, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	tokens, notifier, closeRedis := openRedis(ctx, cfg, log)
	defer closeRedis()

	device := harvia.New(harvia.Config{
		BaseURL:  cfg.Harvia.BaseURL,
		Email:    cfg.Harvia.Email,
		Password: cfg.Harvia.Password,
		TokenTTL: cfg.Harvia.TokenTTL,
	}, tokens, log)

	deps := service.Deps{
		Auth: service.AuthConfig{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
		Companion: service.CompanionConfig{
			Flow:              companion.Flow(cfg.Companion.Flow),
			RevealDelay:       cfg.Companion.RevealDelay,
			TickInterval:      cfg.Companion.Tick,
			InterventionEvery: cfg.Companion.InterventionEvery,
			NarrationEnabled:  cfg.Narration.Enabled,
			Script:            loadScript(cfg, log),
			TelemetryPrefix:   cfg.MQTT.TopicPrefix,
		},
		Notifier: notifier,
		Advisor:  newAdvisor(cfg, log),
		Feed:     newFeed(cfg, device, log),
	}
	if device.Configured() && cfg.Sensor.DeviceID != "" {
		deps.Device = device
		deps.DeviceID = cfg.Sensor.DeviceID
	}
	if synth := newSynth(cfg, log); synth != nil {
		deps.Synth = synth
	}
	if pub := openMQTT(ctx, cfg, log); pub != nil {
		defer pub.Close()
		deps.Telemetry = pub
	}

	services, closeServices := service.NewService(repository.NewRepository(conn), deps, log)
	defer closeServices()

	apiHandler := handlers.NewHandler(services, log)
	srv := server.New(cfg.Port, apiHandler.InitRoutes())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	log.Infow("server started", "addr", srv.Addr(), "flow", cfg.Companion.Flow, "sensor", cfg.Sensor.Mode)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}

func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "sensai.db")
		path = "sensai.db"
	}
	return db.InitDB(path)
}

// openRedis returns the token store and session notifier. Without a
// reachable redis both fall back to in-process implementations.
func openRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (kv.Store, pubsub.Notifier, func()) {
	local := func() (kv.Store, pubsub.Notifier, func()) {
		return kv.NewMemoryStore(), pubsub.NewLocal(), func() {}
	}
	if cfg.Redis.Addr == "" {
		log.Infow("redis not configured; using in-process token cache and notifier")
		return local()
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := kv.NewRedisClient(pingCtx, kv.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warnw("redis unavailable; using in-process token cache and notifier", "addr", cfg.Redis.Addr, "err", err)
		return local()
	}
	return kv.NewRedisStore(client, tokenKeyPrefix), pubsub.NewRedis(client, notifyPrefix, log), func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close redis", "err", err)
		}
	}
}

func openMQTT(ctx context.Context, cfg *config.Config, log *logger.Logger) *sensor.MQTTPublisher {
	if cfg.MQTT.Broker == "" {
		return nil
	}
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pub, err := sensor.NewMQTTPublisher(connCtx, sensor.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	})
	if err != nil {
		log.Warnw("mqtt unavailable; telemetry mirror disabled", "broker", cfg.MQTT.Broker, "err", err)
		return nil
	}
	return pub
}

func newFeed(cfg *config.Config, device *harvia.Client, log *logger.Logger) sensor.Feed {
	if cfg.Sensor.Mode == config.SensorRemote {
		if device.Configured() && cfg.Sensor.DeviceID != "" {
			return sensor.NewRemote(device, cfg.Sensor.DeviceID, cfg.Sensor.RemoteTick, log)
		}
		log.Warnw("remote sensors requested without harvia credentials or device id; simulating")
	}
	return sensor.NewSimulated(cfg.Sensor.SimulatedTick)
}

func newAdvisor(cfg *config.Config, log *logger.Logger) coach.Advisor {
	if cfg.OpenAI.APIKey == "" {
		log.Infow("openai not configured; using local recommendations")
		return coach.Local{}
	}
	return coach.NewRemote(coach.NewChatClient(coach.ChatConfig{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
	}), log)
}

func newSynth(cfg *config.Config, log *logger.Logger) narration.Synthesizer {
	if !cfg.NarrationConfigured() {
		log.Infow("narration not configured; companion stays silent", "provider", cfg.Narration.Provider)
		return nil
	}
	if cfg.Narration.Provider == config.NarrationElevenLabs {
		return narration.NewElevenLabs(narration.ElevenLabsConfig{
			APIKey:  cfg.Narration.ElevenLabsAPIKey,
			VoiceID: cfg.Narration.ElevenLabsVoiceID,
		})
	}
	return narration.NewGemini(narration.GeminiConfig{
		APIKey: cfg.Narration.GeminiAPIKey,
		Voice:  cfg.Narration.GeminiVoice,
	})
}

func loadScript(cfg *config.Config, log *logger.Logger) *companion.Script {
	if cfg.Companion.Script == "" {
		return nil
	}
	s, err := companion.LoadScript(cfg.Companion.Script)
	if err != nil {
		log.Warnw("narration script override ignored", "path", cfg.Companion.Script, "err", err)
		return nil
	}
	return s
}
