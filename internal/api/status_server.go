package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/evolution"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/middleware"
	"github.com/annel0/antsim/internal/world/block"
)

// EngineSource состояние движка эволюции
type EngineSource interface {
	Status() evolution.Status
	Summary() evolution.Summary
}

// AgentSource живые муравьи колонии
type AgentSource interface {
	Live(role colony.Role) []colony.Agent
}

// WorldSource сводка по миру
type WorldSource interface {
	Dimensions() (x, y, z int)
	NestCount() int
	CountBlocks(id block.ID) int
}

// GenericResponse общий формат ответов API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Config зависимости сервера статуса
type Config struct {
	Port     int
	Engine   EngineSource
	Agents   AgentSource
	World    WorldSource
	Registry *prometheus.Registry // метрики для /metrics; nil означает новый реестр
}

// StatusServer HTTP сервер статуса симуляции (только чтение)
type StatusServer struct {
	router  *gin.Engine
	server  *http.Server
	engine  EngineSource
	agents  AgentSource
	world   WorldSource
	metrics *ServerMetrics
	log     *logging.Logger
}

// NewStatusServer создаёт сервер и регистрирует маршруты
func NewStatusServer(cfg Config) (*StatusServer, error) {
	if cfg.Engine == nil {
		return nil, errors.New("api: engine source is required")
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("antsim_status"))
	log := logging.GetAPILogger()
	router.Use(middleware.NewRequestLogger(log).Handler())

	promMw, err := middleware.NewPrometheusMiddleware("antsim_status", reg)
	if err != nil {
		return nil, fmt.Errorf("api: register http metrics: %w", err)
	}
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, reg)

	s := &StatusServer{
		router:  router,
		engine:  cfg.Engine,
		agents:  cfg.Agents,
		world:   cfg.World,
		metrics: NewServerMetrics(),
		log:     log,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

func (s *StatusServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/summary", s.handleSummary)
		api.GET("/agents", s.handleAgents)
		api.GET("/world", s.handleWorld)
		api.GET("/server", s.handleServer)
	}
}

// Handler возвращает http.Handler (для тестов и встраивания)
func (s *StatusServer) Handler() http.Handler {
	return s.router
}

// Start запускает сервер и блокируется до Shutdown
func (s *StatusServer) Start() error {
	s.log.Info("🌐 Status API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status api: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *StatusServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *StatusServer) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние симуляции",
		Data:    s.engine.Status(),
	})
}

func (s *StatusServer) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Итоги эволюции",
		Data:    s.engine.Summary(),
	})
}

func (s *StatusServer) handleAgents(c *gin.Context) {
	if s.agents == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Колония недоступна"})
		return
	}

	var agents []colony.Agent
	switch role := c.DefaultQuery("role", "all"); role {
	case "queen":
		agents = s.agents.Live(colony.RoleQueen)
	case "worker":
		agents = s.agents.Live(colony.RoleWorker)
	case "all":
		agents = append(s.agents.Live(colony.RoleQueen), s.agents.Live(colony.RoleWorker)...)
	default:
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Неизвестная роль %q", role),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Живые муравьи",
		Data: gin.H{
			"agents": agents,
			"total":  len(agents),
		},
	})
}

func (s *StatusServer) handleWorld(c *gin.Context) {
	if s.world == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Мир недоступен"})
		return
	}

	x, y, z := s.world.Dimensions()
	counts := make(map[string]int, block.Count())
	for id := block.ID(0); int(id) < block.Count(); id++ {
		counts[id.Name()] = s.world.CountBlocks(id)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сводка по миру",
		Data: gin.H{
			"size":   []int{x, y, z},
			"nests":  s.world.NestCount(),
			"blocks": counts,
		},
	})
}

func (s *StatusServer) handleServer(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о процессе",
		Data:    s.metrics.Snapshot(),
	})
}
