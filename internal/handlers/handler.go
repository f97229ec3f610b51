package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "sensor_dashboard/internal/docs"
	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/service"
)

// NoticeSource lets WebSocket clients follow operator notices.
type NoticeSource interface {
	Subscribe(buffer int) (<-chan models.Notice, func())
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveHTTP(method, path string, status int, d time.Duration)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	notices  NoticeSource
	requests RequestObserver
	gatherer prometheus.Gatherer
}

type Option func(*Handler)

// WithNotices streams notices from src to WebSocket clients.
func WithNotices(src NoticeSource) Option {
	return func(h *Handler) { h.notices = src }
}

// WithMetrics records request metrics with obs and serves g on /metrics.
func WithMetrics(obs RequestObserver, g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.requests = obs
		h.gatherer = g
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.requests != nil {
		router.Use(h.requestMetrics)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	h.registerAPIRoutes(router)

	// view-state and notice stream on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerDashboardRoutes(api)
		h.registerDeviceRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDashboardRoutes(api *gin.RouterGroup) {
	api.GET("/snapshot", h.getSnapshot)
	api.GET("/table", h.getTable)
	api.GET("/export.csv", h.exportCSV)

	charts := api.Group("/charts")
	{
		charts.GET("/latest/:metric", h.getLatestChart)
		charts.GET("/split", h.getSplitChart)
		charts.GET("/trend", h.getTrendChart)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("", h.getDevice)
		// Body example: {"command":"BUZZER_ON"}
		device.POST("/commands", h.issueCommand)
		device.POST("/reconcile", h.reconcileDevice)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}
