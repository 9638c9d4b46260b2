package server

import (
	"time"

	"innbox/internal/auth"
	"innbox/internal/cache"
	"innbox/internal/config"
	"innbox/internal/database"
	"innbox/internal/emails"
	"innbox/internal/embeddings"
	"innbox/internal/handlers"
	"innbox/internal/respond"
	"innbox/internal/retrieval"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Services bundles the constructed domain services the routes depend on.
// Everything is built once at process start and injected here.
type Services struct {
	Messages     *database.MessageStore
	Index        *embeddings.Index
	Retriever    *retrieval.Retriever
	Detector     *respond.Detector
	Orchestrator *respond.Orchestrator
	Classifier   *emails.Classifier
}

// Server represents the application server
type Server struct {
	echo     *echo.Echo
	db       *sqlx.DB
	config   *config.Config
	logger   zerolog.Logger
	cache    *cache.Cache
	auth     *auth.Manager
	services *Services
}

// New creates a new server instance
func New(cfg *config.Config, db *sqlx.DB, logger zerolog.Logger, services *Services) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		logger:   logger,
		cache:    cache.New(),
		auth:     auth.NewManager(cfg),
		services: services,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	s.echo.HideBanner = true

	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (kept at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	api.GET("/", handlers.RootHandler(s.config.Version))
	api.GET("/unanswered", handlers.UnansweredHandler(s.services.Detector))
	api.POST("/respond", handlers.RespondHandler(s.services.Orchestrator))
	api.POST("/search", handlers.SearchHandler(s.services.Retriever))
	api.GET("/stats", handlers.StatsHandler(s.services.Messages, s.services.Index, s.cache))

	// Admin routes behind token auth
	api.POST("/admin/login", handlers.AdminLoginHandler(s.auth))

	admin := api.Group("/admin", auth.Middleware(s.auth))
	admin.POST("/sync-embeddings", handlers.SyncEmbeddingsHandler(s.services.Index))
	admin.POST("/verify-embeddings", handlers.VerifyEmbeddingsHandler(s.services.Index))
	admin.POST("/migrate-sender", handlers.MigrateSenderHandler(s.services.Messages, s.services.Classifier))
	admin.POST("/trigger-sweep-job", handlers.TriggerSweepJobHandler(s.config))
	admin.GET("/sweep-job-status/:jobName", handlers.SweepJobStatusHandler(s.config))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
