package handlers

import (
	"simdash/internal/logger"
	"simdash/internal/realtime"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, the realtime broker and logging.
type Handler struct {
	services *service.Service
	broker   *realtime.Broker
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, broker *realtime.Broker, log *logger.Logger) *Handler {
	return &Handler{services: services, broker: broker, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Realtime change feed (HTTP upgrade) on the same port
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

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
		api.GET("/user", h.currentUser)
		h.registerEventRoutes(api)
		h.registerRPCRoutes(api)
		h.registerFunctionRoutes(api)
		h.registerTodoRoutes(api)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/simulation-events", h.listSimulationEvents)

	checkups := api.Group("/checkup-events")
	{
		checkups.GET("", h.listCheckups)
		checkups.POST("", h.createCheckup)
		checkups.GET("/export", h.exportCheckups)
	}
}

func (h *Handler) registerRPCRoutes(api *gin.RouterGroup) {
	rpc := api.Group("/rpc")
	{
		// Body example: {"event_type":"started"}
		rpc.POST("/"+service.ProcInsertSimulationEvent, h.insertSimulationEvent)
		// Body example: {"temperature":42,"simulation_id":"..."}
		rpc.POST("/"+service.ProcInsertCheckupEvent, h.insertCheckupEvent)
		rpc.POST("/"+service.ProcActiveSimulationID, h.activeSimulationID)
	}
}

func (h *Handler) registerFunctionRoutes(api *gin.RouterGroup) {
	fn := api.Group("/functions")
	{
		fn.POST("/send-critical-alert", h.sendCriticalAlert)
	}
}

func (h *Handler) registerTodoRoutes(api *gin.RouterGroup) {
	todos := api.Group("/todos")
	{
		todos.GET("", h.listTodos)
		todos.POST("", h.createTodo)
		todos.PATCH("/:id", h.updateTodo)
		todos.DELETE("/:id", h.deleteTodo)
	}
}
