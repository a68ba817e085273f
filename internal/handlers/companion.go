package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sensai"
	"sensai/internal/companion"
	"sensai/internal/models"
	"sensai/internal/service"
)

const (
	statusOK = "ok"

	errGetState        = "failed to load companion state"
	errDispatch        = "failed to apply event"
	errUnavailable     = "companion is shutting down"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// companionError maps companion failures to a status code.
func (h *Handler) companionError(c *gin.Context, userMsg, logKey string, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, service.ErrClosed) || errors.Is(err, companion.ErrStopped) {
		code, userMsg = http.StatusServiceUnavailable, errUnavailable
	}
	h.logAndJSONError(c, code, userMsg, logKey, err, "user_id", userID(c))
}

// toEvent converts a posted action into a companion event. Timer ticks,
// sensor samples and recommendation results are internal and rejected.
func toEvent(r sensai.EventRequest) (companion.Event, error) {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "start":
		return companion.Start{}, nil
	case "advance":
		return companion.Advance{}, nil
	case "back":
		return companion.Back{}, nil
	case "choose":
		if r.Option == "" {
			return nil, errors.New("choose requires option")
		}
		return companion.Choose{Option: strings.ToLower(strings.TrimSpace(r.Option))}, nil
	case "answer":
		if r.Yes == nil {
			return nil, errors.New("answer requires yes")
		}
		return companion.Answer{Yes: *r.Yes}, nil
	case "submit_goal":
		return companion.SubmitGoal{Goal: r.Goal}, nil
	case "submit_settings":
		if r.Settings == nil {
			return nil, errors.New("submit_settings requires settings")
		}
		return companion.SubmitSettings{Settings: *r.Settings}, nil
	case "end_session":
		return companion.EndSession{}, nil
	case "submit_feedback":
		fb := models.DefaultFeedback()
		if r.Feedback != nil {
			fb = *r.Feedback
		}
		return companion.SubmitFeedback{Feedback: fb}, nil
	case "cancel":
		return companion.Cancel{}, nil
	case "reset":
		return companion.Reset{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", r.Type)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get companion state
// @Tags         companion
// @Produce      json
// @Success      200  {object}  companion.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/companion/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	snap, err := h.services.Companion.State(c.Request.Context(), userID(c))
	if err != nil {
		h.companionError(c, errGetState, "companion_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Send a user action
// @Description  Unknown actions for the current screen leave the state unchanged.
// @Tags         companion
// @Accept       json
// @Produce      json
// @Param        body  body      sensai.EventRequest  true  "Action"
// @Success      200   {object}  companion.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/companion/events [post]
// @Security     BearerAuth
func (h *Handler) postEvent(c *gin.Context) {
	var req sensai.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ev, err := toEvent(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	h.dispatch(c, ev)
}

// @Summary      Reset all session data
// @Tags         companion
// @Produce      json
// @Success      200  {object}  companion.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/companion/reset [post]
// @Security     BearerAuth
func (h *Handler) reset(c *gin.Context) {
	h.dispatch(c, companion.Reset{})
}

func (h *Handler) dispatch(c *gin.Context, ev companion.Event) {
	snap, err := h.services.Companion.Dispatch(c.Request.Context(), userID(c), ev)
	if err != nil {
		h.companionError(c, errDispatch, "companion_dispatch_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Record a user interaction
// @Description  Narration stays silent until the first interaction.
// @Tags         companion
// @Produce      json
// @Success      200  {object}  companion.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/companion/interaction [post]
// @Security     BearerAuth
func (h *Handler) markInteracted(c *gin.Context) {
	snap, err := h.services.Companion.MarkInteracted(c.Request.Context(), userID(c))
	if err != nil {
		h.companionError(c, errGetState, "companion_interaction_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Enable or disable narration
// @Tags         companion
// @Accept       json
// @Produce      json
// @Param        body  body      sensai.NarrationRequest  true  "Narration toggle"
// @Success      200   {object}  companion.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/companion/narration [put]
// @Security     BearerAuth
func (h *Handler) setNarration(c *gin.Context) {
	var req sensai.NarrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Companion.SetNarration(c.Request.Context(), userID(c), *req.Enabled)
	if err != nil {
		h.companionError(c, errGetState, "companion_narration_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
