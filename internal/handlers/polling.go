package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Trigger a poll cycle
// @Description  Schedules an immediate refresh. Returns right away; requests during an in-flight cycle are coalesced.
// @Tags         refresh
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/refresh [post]
// @Security     BearerAuth
func (h *Handler) triggerRefresh(c *gin.Context) {
	h.services.TriggerRefresh()
	c.JSON(http.StatusAccepted, gin.H{"status": statusScheduled})
}

// @Summary      Seconds until the next scheduled cycle
// @Tags         refresh
// @Produce      json
// @Success      200  {object}  map[string]int  "seconds"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/refresh/countdown [get]
// @Security     BearerAuth
func (h *Handler) refreshCountdown(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seconds": h.services.Countdown()})
}

// @Summary      Latest poll cycle result
// @Tags         refresh
// @Produce      json
// @Success      200  {object}  alarmdesk.CycleResult
// @Success      204  "no cycle has completed yet"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/refresh/last [get]
// @Security     BearerAuth
func (h *Handler) lastCycle(c *gin.Context) {
	result, ok := h.services.LastCycle()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, result)
}
