package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/raycast/internal/logging"
	"github.com/annel0/raycast/internal/middleware"
	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/storage"
	"github.com/annel0/raycast/internal/world"
)

const (
	defaultPort        = ":8088"
	defaultCastTimeout = 2 * time.Second
	defaultService     = "raycast"
)

// RestServer представляет REST API сервиса лучей
type RestServer struct {
	router        *gin.Engine
	httpServer    *http.Server
	world         *world.WorldManager
	marcher       *raycast.Marcher
	policies      *raycast.PolicySet
	entityRepo    storage.EntityRepo
	logger        *logging.Logger
	port          string
	metrics       *ServerMetrics
	defaultPolicy string
	maxDistance   float64
	castTimeout   time.Duration
	allowOrigins  []string
	statsSources  map[string]StatsSource
}

// StatsSource отдаёт дополнительный раздел /api/stats (хранилище, шина инвалидаций)
type StatsSource func() interface{}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port          string              // адрес для запуска сервера, например ":8088"
	World         *world.WorldManager // мир: воксели и сущности
	Marcher       *raycast.Marcher    // движок лучей поверх World
	Policies      *raycast.PolicySet  // доступные пресеты шага
	EntityRepo    storage.EntityRepo  // хранилище сущностей; nil - только память
	Logger        *logging.Logger
	Service       string // префикс HTTP-метрик и имя для otelgin
	DefaultPolicy string
	MaxDistance   float64 // предел max_distance в запросе
	CastTimeout   time.Duration
	AllowOrigins  []string
	StatsSources  map[string]StatsSource

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = defaultPort
	}
	if config.Service == "" {
		config.Service = defaultService
	}
	if config.CastTimeout <= 0 {
		config.CastTimeout = defaultCastTimeout
	}
	if config.Policies == nil {
		config.Policies = raycast.DefaultPolicies()
	}
	if config.DefaultPolicy == "" {
		config.DefaultPolicy = raycast.PreciseBlock.Name
	}
	if config.MaxDistance <= 0 {
		config.MaxDistance = 256
	}
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"*"}
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.Service))

	loggerMw := middleware.NewRequestLogger(logger)
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware(config.Service, config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:        router,
		world:         config.World,
		marcher:       config.Marcher,
		policies:      config.Policies,
		entityRepo:    config.EntityRepo,
		logger:        logger,
		port:          config.Port,
		metrics:       NewServerMetrics(),
		defaultPolicy: config.DefaultPolicy,
		maxDistance:   config.MaxDistance,
		castTimeout:   config.CastTimeout,
		allowOrigins:  config.AllowOrigins,
		statsSources:  config.StatsSources,
	}

	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(rs.corsMiddleware())

	api := rs.router.Group("/api")
	{
		api.POST("/raycast", rs.handleCast)
		api.POST("/raycast/trace", rs.handleTrace)
		api.GET("/policies", rs.handlePolicies)

		api.GET("/blocks", rs.handleGetBlock)
		api.PUT("/blocks", rs.handleSetBlock)

		api.GET("/entities", rs.handleListEntities)
		api.POST("/entities", rs.handleCreateEntity)
		api.GET("/entities/:id", rs.handleGetEntity)
		api.PATCH("/entities/:id", rs.handleUpdateEntity)
		api.DELETE("/entities/:id", rs.handleDeleteEntity)

		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

func (rs *RestServer) corsMiddleware() gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(rs.allowOrigins))
	for _, o := range rs.allowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (rs *RestServer) ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: true, Message: message, Data: data})
}

func (rs *RestServer) fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("REST API слушает %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
