package harvia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensai/internal/kv"
)

type fakeAPI struct {
	logins   int32
	validTok atomic.Value
	controls []Control
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		n := atomic.AddInt32(&f.logins, 1)
		tok := "tok-" + string(rune('0'+n))
		f.validTok.Store(tok)
		_ = json.NewEncoder(w).Encode(loginResponse{AccessToken: tok, ExpiresIn: 3600})
	})
	mux.HandleFunc("/devices/dev-1/sensors", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature":78.4,"humidity":21,"presence":true,"timestamp":"2025-01-01T10:00:00Z"}`))
	})
	mux.HandleFunc("/devices/dev-1/control", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var c Control
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		f.controls = append(f.controls, c)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	tok, _ := f.validTok.Load().(string)
	return tok != "" && r.Header.Get("Authorization") == "Bearer "+tok
}

func TestClient_ReadSensorsCachesToken(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Email: "a@b.c", Password: "secret"}, nil, nil)
	ctx := context.Background()

	r, err := c.ReadSensors(ctx, "dev-1")
	require.NoError(t, err)
	assert.InDelta(t, 78.4, r.Temperature, 0.001)
	assert.InDelta(t, 21, r.Humidity, 0.001)
	assert.True(t, r.Presence)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), r.Timestamp.UTC())

	_, err = c.ReadSensors(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.logins))
}

func TestClient_RelogsInAfter401(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := kv.NewRedisStore(client, "test:")
	require.NoError(t, store.Set(context.Background(), tokenCacheKey, "stale", time.Hour))

	c := New(Config{BaseURL: srv.URL, Email: "a@b.c", Password: "secret"}, store, nil)
	require.NoError(t, c.SetTarget(context.Background(), "dev-1", 80))

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.logins))
	require.Len(t, api.controls, 1)
	require.NotNil(t, api.controls[0].TargetTemperature)
	assert.InDelta(t, 80, *api.controls[0].TargetTemperature, 0.001)
	assert.Nil(t, api.controls[0].TargetHumidity)

	cached, err := store.Get(context.Background(), tokenCacheKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cached)
}

func TestClient_BadCredentials(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Email: "a@b.c", Password: "wrong"}, nil, nil)
	_, err := c.ReadSensors(context.Background(), "dev-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_Unconfigured(t *testing.T) {
	c := New(Config{}, nil, nil)
	assert.False(t, c.Configured())
	_, err := c.ReadSensors(context.Background(), "dev-1")
	assert.ErrorIs(t, err, ErrUnconfigured)
}
