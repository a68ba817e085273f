package handlers

import (
	"sensai/internal/logger"
	"sensai/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// browsers cannot set headers on websocket upgrades, so the token may also come as ?access_token=
	router.GET("/ws", h.streamAuthMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/anonymous", h.signInAnonymously)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerCompanionRoutes(api)
		h.registerSessionRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerCompanionRoutes(api *gin.RouterGroup) {
	comp := api.Group("/companion")
	{
		comp.GET("/state", h.getState)
		// Body example: {"type":"choose","option":"new"}
		comp.POST("/events", h.postEvent)
		comp.POST("/interaction", h.markInteracted)
		comp.PUT("/narration", h.setNarration)
		comp.POST("/reset", h.reset)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", h.listSessions)
		sessions.GET("/stats", h.getStats)
		sessions.GET("/export", h.exportSessions)
	}
	api.POST("/recommendations/preview", h.previewRecommendation)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}
