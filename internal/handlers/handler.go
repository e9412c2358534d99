package handlers

import (
	"alarmdesk/internal/logger"
	"alarmdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	hub      *cycleHub
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	h := &Handler{services: services, log: log, hub: newCycleHub()}
	if services.Poller != nil {
		services.OnCycleComplete(h.hub.broadcast)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// System endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket cycle feed (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerLineageRoutes(api)
		h.registerRefreshRoutes(api)
		h.registerSourceRoutes(api)
	}
}

func (h *Handler) registerLineageRoutes(api *gin.RouterGroup) {
	lineages := api.Group("/lineages")
	{
		lineages.GET("", h.listLineages)
		lineages.GET("/history", h.lineageHistory)
		lineages.POST("/comment", h.submitComment)
		lineages.PUT("/status", h.setStatus)
	}
}

func (h *Handler) registerRefreshRoutes(api *gin.RouterGroup) {
	refresh := api.Group("/refresh")
	{
		refresh.POST("", h.triggerRefresh)
		refresh.GET("/countdown", h.refreshCountdown)
		refresh.GET("/last", h.lastCycle)
	}
}

func (h *Handler) registerSourceRoutes(api *gin.RouterGroup) {
	sources := api.Group("/sources")
	{
		sources.POST("", h.createSource)
		sources.GET("", h.listSources)
		sources.GET("/:id", h.getSource)
		sources.PUT("/:id", h.updateSource)
		sources.DELETE("/:id", h.deleteSource)
	}
}
