package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sensai"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Client messages understood on the stream.
const clientInteraction = "interaction"

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// @Summary      Companion stream
// @Description  Websocket pushing "state" frames on every change and "audio"/"audio_stop" frames for narration. Send {"type":"interaction"} to unlock narration.
// @Tags         companion
// @Param        access_token  query  string  false  "Bearer token when the header cannot be set"
// @Router       /ws [get]
// @Security     BearerAuth
func (h *Handler) wsConnect(c *gin.Context) {
	uid := userID(c)
	ctx := c.Request.Context()

	frames, cancel, err := h.services.Companion.Stream(ctx, uid)
	if err != nil {
		h.companionError(c, errGetState, "ws_stream_failed", err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(ctx, conn, uid, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := h.sendFrame(conn, f); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "type", f.Type)
				}
				return
			}
		}
	}
}

// startReader handles control frames and client messages, and detects closure.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, uid int, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var msg sensai.Frame
		if json.Unmarshal(data, &msg) != nil || msg.Type != clientInteraction {
			continue
		}
		if _, err := h.services.Companion.MarkInteracted(ctx, uid); err != nil && h.log != nil {
			h.log.Warnw("ws_interaction_failed", "err", err, "user_id", uid)
		}
	}
}

// sendFrame writes one frame with a write deadline.
func (h *Handler) sendFrame(conn *websocket.Conn, f sensai.Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
