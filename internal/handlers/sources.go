package handlers

import (
	"errors"
	"net/http"

	"alarmdesk"
	"alarmdesk/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errCreateSource = "failed to create source"
	errUpdateSource = "failed to update source"
	errDeleteSource = "failed to delete source"
	errGetSource    = "failed to load source"
	errListSources  = "failed to list sources"

	defaultSourcePageSize = 100
)

// SourcePayload is the create/update body for a source descriptor. The
// password is write-only: responses never echo it back.
type SourcePayload struct {
	Label      string  `json:"label" binding:"required"`
	BaseURL    string  `json:"base_url" binding:"required"`
	Username   string  `json:"username" binding:"required"`
	Password   string  `json:"password"`
	Enabled    *bool   `json:"enabled"`     // defaults to true
	HourOffset float64 `json:"hour_offset"` // added to source timestamps, -12..14
	PageSize   int     `json:"page_size"`   // 1..500, defaults to 100
}

func (p SourcePayload) toSource() alarmdesk.Source {
	enabled := true
	if p.Enabled != nil {
		enabled = *p.Enabled
	}
	pageSize := p.PageSize
	if pageSize == 0 {
		pageSize = defaultSourcePageSize
	}
	return alarmdesk.Source{
		Label:      p.Label,
		BaseURL:    p.BaseURL,
		Username:   p.Username,
		Password:   p.Password,
		Enabled:    enabled,
		HourOffset: p.HourOffset,
		PageSize:   pageSize,
	}
}

// sourceErrorResponse maps service errors onto HTTP codes shared by all the
// source endpoints.
func (h *Handler) sourceErrorResponse(c *gin.Context, err error, userMsg, logKey string) {
	switch {
	case errors.Is(err, alarmdesk.ErrSourceInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrSourceNotFound.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err)
	}
}

// @Summary      Create source
// @Tags         sources
// @Accept       json
// @Produce      json
// @Param        body  body  SourcePayload  true  "Source descriptor"
// @Success      201   {object}  alarmdesk.Source
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sources [post]
// @Security     BearerAuth
func (h *Handler) createSource(c *gin.Context) {
	var payload SourcePayload
	if ok := h.bindJSONOrBadRequest(c, &payload); !ok {
		return
	}

	created, err := h.services.SourceAdmin.Create(c.Request.Context(), payload.toSource())
	if err != nil {
		h.sourceErrorResponse(c, err, errCreateSource, "source_create_failed")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      List sources
// @Tags         sources
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, items"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sources [get]
// @Security     BearerAuth
func (h *Handler) listSources(c *gin.Context) {
	items, err := h.services.SourceAdmin.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSources, "source_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

// @Summary      Get source
// @Tags         sources
// @Produce      json
// @Param        id   path      string  true  "Source ID"
// @Success      200  {object}  alarmdesk.Source
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sources/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSource(c *gin.Context) {
	src, err := h.services.SourceAdmin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sourceErrorResponse(c, err, errGetSource, "source_get_failed")
		return
	}
	c.JSON(http.StatusOK, src)
}

// @Summary      Update source
// @Description  Full replacement of the descriptor. An empty password keeps the stored one.
// @Tags         sources
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "Source ID"
// @Param        body  body  SourcePayload  true  "Source descriptor"
// @Success      200   {object}  alarmdesk.Source
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sources/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateSource(c *gin.Context) {
	var payload SourcePayload
	if ok := h.bindJSONOrBadRequest(c, &payload); !ok {
		return
	}

	src := payload.toSource()
	src.ID = c.Param("id")

	// Blank password means "keep the one on file".
	if src.Password == "" {
		existing, err := h.services.SourceAdmin.Get(c.Request.Context(), src.ID)
		if err != nil {
			h.sourceErrorResponse(c, err, errUpdateSource, "source_update_failed")
			return
		}
		src.Password = existing.Password
	}

	updated, err := h.services.SourceAdmin.Update(c.Request.Context(), src)
	if err != nil {
		h.sourceErrorResponse(c, err, errUpdateSource, "source_update_failed")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete source
// @Tags         sources
// @Produce      json
// @Param        id   path      string  true  "Source ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sources/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSource(c *gin.Context) {
	if err := h.services.SourceAdmin.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.sourceErrorResponse(c, err, errDeleteSource, "source_delete_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}
