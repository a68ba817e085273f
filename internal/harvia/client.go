// Package harvia is a client for the sauna controller vendor API.
package harvia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"sensai/internal/kv"
	"sensai/internal/logger"
	"sensai/internal/models"
)

var (
	// ErrUnconfigured means no usable credentials were provided.
	ErrUnconfigured = errors.New("harvia client is not configured")
	// ErrUnauthorized means the API rejected the credentials or token.
	ErrUnauthorized = errors.New("harvia: unauthorized")
)

const (
	defaultBaseURL  = "https://api.harvia.io"
	defaultTokenTTL = 50 * time.Minute
	requestTimeout  = 10 * time.Second
	tokenCacheKey   = "harvia:token"
)

// Config holds the account and endpoint of the vendor API.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	TokenTTL time.Duration
}

// Control is a device command. Nil targets are left unchanged.
type Control struct {
	DeviceID          string   `json:"deviceId"`
	TargetTemperature *float64 `json:"targetTemperature,omitempty"`
	TargetHumidity    *float64 `json:"targetHumidity,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

type sensorsResponse struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Presence    bool      `json:"presence"`
	Timestamp   time.Time `json:"timestamp"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client logs in lazily, caches the bearer token in a kv.Store and retries
// a request once after a 401.
type Client struct {
	http   *resty.Client
	cfg    Config
	tokens kv.Store
	log    *logger.Logger
}

// New builds a client. A nil store keeps the token in memory.
func New(cfg Config, tokens kv.Store, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if tokens == nil {
		tokens = kv.NewMemoryStore()
	}
	if log == nil {
		log = logger.Nop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: client, cfg: cfg, tokens: tokens, log: log.Named("harvia")}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

// ReadSensors returns the latest reading of a device.
func (c *Client) ReadSensors(ctx context.Context, deviceID string) (models.SensorReading, error) {
	var out sensorsResponse
	err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/devices/" + url.PathEscape(deviceID) + "/sensors")
	})
	if err != nil {
		return models.SensorReading{}, err
	}
	ts := out.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return models.SensorReading{
		Temperature: out.Temperature,
		Humidity:    out.Humidity,
		Presence:    out.Presence,
		Timestamp:   ts,
	}, nil
}

// SetControl sends a device command.
func (c *Client) SetControl(ctx context.Context, cmd Control) error {
	return c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(cmd).Post("/devices/" + url.PathEscape(cmd.DeviceID) + "/control")
	})
}

// SetTarget is a shortcut for a temperature-only command.
func (c *Client) SetTarget(ctx context.Context, deviceID string, celsius int) error {
	t := float64(celsius)
	return c.SetControl(ctx, Control{DeviceID: deviceID, TargetTemperature: &t})
}

func (c *Client) do(ctx context.Context, send func(*resty.Request) (*resty.Response, error)) error {
	if !c.Configured() {
		return ErrUnconfigured
	}
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		var apiErr apiError
		resp, err := send(c.http.R().SetContext(ctx).SetAuthToken(token).SetError(&apiErr))
		if err != nil {
			return fmt.Errorf("harvia request: %w", err)
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			c.log.Infow("harvia_token_rejected", "attempt", attempt+1)
			if err := c.tokens.Delete(ctx, tokenCacheKey); err != nil {
				c.log.Warnw("harvia_token_invalidate_failed", "err", err)
			}
			continue
		}
		if resp.IsError() {
			return fmt.Errorf("harvia request failed: %s %s", resp.Status(), apiErr.Message)
		}
		return nil
	}
	return ErrUnauthorized
}

func (c *Client) token(ctx context.Context) (string, error) {
	tok, err := c.tokens.Get(ctx, tokenCacheKey)
	if err == nil && tok != "" {
		return tok, nil
	}
	if err != nil && !errors.Is(err, kv.ErrCacheMiss) {
		c.log.Warnw("harvia_token_cache_read_failed", "err", err)
	}
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) (string, error) {
	var out loginResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: c.cfg.Email, Password: c.cfg.Password}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/auth/token")
	if err != nil {
		return "", fmt.Errorf("harvia login: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return "", ErrUnauthorized
	}
	if resp.IsError() {
		return "", fmt.Errorf("harvia login failed: %s %s", resp.Status(), apiErr.Message)
	}
	if out.AccessToken == "" {
		return "", errors.New("harvia login returned an empty token")
	}

	ttl := c.cfg.TokenTTL
	if out.ExpiresIn > 0 {
		if exp := time.Duration(out.ExpiresIn) * time.Second; exp < ttl {
			ttl = exp
		}
	}
	if err := c.tokens.Set(ctx, tokenCacheKey, out.AccessToken, ttl); err != nil {
		c.log.Warnw("harvia_token_cache_write_failed", "err", err)
	}
	c.log.Infow("harvia_logged_in", "ttl", ttl)
	return out.AccessToken, nil
}
