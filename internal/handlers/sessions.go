package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sensai"
)

const (
	errLoadSessions = "failed to load sessions"
	errExport       = "failed to export sessions"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// @Summary      List sessions
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sessions"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions [get]
// @Security     BearerAuth
func (h *Handler) listSessions(c *gin.Context) {
	list, err := h.services.History.Sessions(c.Request.Context(), userID(c))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSessions, "sessions_list_failed", err, "user_id", userID(c))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(list),
		"sessions": list,
	})
}

// @Summary      Session statistics
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  models.Stats
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/stats [get]
// @Security     BearerAuth
func (h *Handler) getStats(c *gin.Context) {
	st, err := h.services.History.Stats(c.Request.Context(), userID(c))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSessions, "sessions_stats_failed", err, "user_id", userID(c))
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Export sessions
// @Description  Workbook with one sheet of sessions and one of their sensor samples.
// @Tags         sessions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/export [get]
// @Security     BearerAuth
func (h *Handler) exportSessions(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.History.Export(c.Request.Context(), userID(c), &buf); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "sessions_export_failed", err, "user_id", userID(c))
		return
	}
	name := fmt.Sprintf("sensai-sessions-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// @Summary      Preview a recommendation
// @Description  Advice for a hypothetical session; nothing is stored.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      sensai.PreviewRequest  true  "Session"
// @Success      200   {object}  sensai.PreviewResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/recommendations/preview [post]
// @Security     BearerAuth
func (h *Handler) previewRecommendation(c *gin.Context) {
	var req sensai.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.services.History.Preview(c.Request.Context(), req.Session()))
}
