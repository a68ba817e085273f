package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensai/internal/logger"
	"sensai/internal/models"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Tee mirrors every sample of a feed to a Publisher before handing it on.
// Publish failures are logged and never interrupt the feed.
type Tee struct {
	feed  Feed
	pub   Publisher
	topic string
	log   *logger.Logger
}

func NewTee(feed Feed, pub Publisher, topic string, log *logger.Logger) *Tee {
	if log == nil {
		log = logger.Nop()
	}
	return &Tee{feed: feed, pub: pub, topic: topic, log: log}
}

type telemetry struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

func (t *Tee) Start(ctx context.Context, minutes, targetTemp int, onSample func(models.SensorRecord)) StopFunc {
	return t.feed.Start(ctx, minutes, targetTemp, func(rec models.SensorRecord) {
		payload, err := json.Marshal(telemetry(rec))
		if err == nil {
			err = t.pub.Publish(t.topic, payload)
		}
		if err != nil {
			t.log.Warnw("telemetry_publish_failed", "topic", t.topic, "err", err)
		}
		onSample(rec)
	})
}

// TelemetryTopic is the per-user topic samples are mirrored to.
func TelemetryTopic(prefix, userID string) string {
	return fmt.Sprintf("%s/%s/telemetry", prefix, userID)
}

// MQTTConfig selects the broker used for telemetry.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

const publishTimeout = 5 * time.Second

// MQTTPublisher is a Publisher over a paho client.
type MQTTPublisher struct {
	client mqtt.Client
	qos    byte
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(ctx context.Context, cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, fmt.Errorf("connect to mqtt broker: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker: %w", err)
	}
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
