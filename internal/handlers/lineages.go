package handlers

import (
	"errors"
	"net/http"

	"alarmdesk"
	"alarmdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusScheduled = "scheduled"
	statusDeleted   = "deleted"

	errListLineages = "failed to list lineages"
	errLoadHistory  = "failed to load history"
	errSaveComment  = "failed to save comment"
	errSaveStatus   = "failed to save status"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// lineageKeyPayload identifies a lineage in request bodies.
type lineageKeyPayload struct {
	Source string `json:"source" binding:"required"`
	Site   string `json:"site" binding:"required"`
	Point  string `json:"point" binding:"required"`
}

func (p lineageKeyPayload) key() alarmdesk.LineageKey {
	return alarmdesk.LineageKey{Source: p.Source, Site: p.Site, Point: p.Point}
}

// CommentRequest is the payload for posting a lineage comment.
type CommentRequest struct {
	Key  lineageKeyPayload `json:"key" binding:"required"`
	Text string            `json:"text" binding:"required"`
}

// StatusRequest is the payload for an explicit status decision.
type StatusRequest struct {
	Key    lineageKeyPayload `json:"key" binding:"required"`
	Status string            `json:"status" binding:"required"` // not_handled | handled | completed | opportunity
}

// @Summary      Health check
// @Description  Liveness plus scheduler state: countdown seconds and, once a cycle ran, its finish time.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	body := gin.H{
		"status":    statusOK,
		"countdown": h.services.Countdown(),
	}
	if last, ok := h.services.LastCycle(); ok {
		body["last_cycle"] = last.FinishedAt
	}
	c.JSON(http.StatusOK, body)
}

// @Summary      List lineages
// @Description  Returns the lineage snapshot of the latest poll cycle, optionally filtered.
// @Tags         lineages
// @Produce      json
// @Param        status  query  string  false  "Triage status"  Enums(not_handled,handled,completed,opportunity)
// @Param        source  query  string  false  "Source label"
// @Param        site    query  string  false  "Site"
// @Param        q       query  string  false  "Substring match over site, point and message"
// @Success      200  {object}  map[string]interface{}  "count, items"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/lineages [get]
// @Security     BearerAuth
func (h *Handler) listLineages(c *gin.Context) {
	status := c.Query("status")
	if status != "" {
		if _, err := alarmdesk.ParseStatus(status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	items := h.services.Lineages(service.LineageFilter{
		Status: status,
		Source: c.Query("source"),
		Site:   c.Query("site"),
		Query:  c.Query("q"),
	})
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

// @Summary      Lineage history
// @Description  Comments and status changes merged into one timeline, ascending by timestamp.
// @Tags         lineages
// @Produce      json
// @Param        source  query  string  true  "Source label"
// @Param        site    query  string  true  "Site"
// @Param        point   query  string  true  "Point"
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/lineages/history [get]
// @Security     BearerAuth
func (h *Handler) lineageHistory(c *gin.Context) {
	key := alarmdesk.LineageKey{
		Source: c.Query("source"),
		Site:   c.Query("site"),
		Point:  c.Query("point"),
	}
	if key.Source == "" || key.Site == "" || key.Point == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source, site and point are required"})
		return
	}

	entries, err := h.services.History(c.Request.Context(), key)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadHistory, "lineage_history_failed", err, "key", key.String())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// @Summary      Comment on a lineage
// @Description  Appends a comment and promotes the lineage to handled unless it is completed.
// @Tags         lineages
// @Accept       json
// @Produce      json
// @Param        body  body  CommentRequest  true  "Comment payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/lineages/comment [post]
// @Security     BearerAuth
func (h *Handler) submitComment(c *gin.Context) {
	var req CommentRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.SubmitComment(c.Request.Context(), req.Key.key(), req.Text)
	switch {
	case errors.Is(err, service.ErrEmptyComment):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveComment, "lineage_comment_failed", err, "key", req.Key.key().String())
	default:
		c.JSON(http.StatusOK, gin.H{"status": statusOK})
	}
}

// @Summary      Set lineage status
// @Tags         lineages
// @Accept       json
// @Produce      json
// @Param        body  body  StatusRequest  true  "Status payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/lineages/status [put]
// @Security     BearerAuth
func (h *Handler) setStatus(c *gin.Context) {
	var req StatusRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.SetStatus(c.Request.Context(), req.Key.key(), alarmdesk.Status(req.Status))
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveStatus, "lineage_set_status_failed", err, "key", req.Key.key().String(), "status", req.Status)
	default:
		c.JSON(http.StatusOK, gin.H{"status": statusOK})
	}
}
