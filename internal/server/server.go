package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

const greeting = "Hello This is the Taskboard API"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server provides HTTP handlers for the project board backend.
type Server struct {
	engine    *gin.Engine
	svc       *service.Services
	store     Pinger
	logger    logrus.FieldLogger
	metrics   *Metrics
	exportDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *service.Services, store Pinger, logger logrus.FieldLogger, exportDir string) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		engine:    router,
		svc:       svc,
		store:     store,
		logger:    logger,
		metrics:   NewMetrics(),
		exportDir: exportDir,
	}

	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(srv.accessLog())
	router.Use(srv.metrics.Middleware())

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.engine.GET("/users", s.handleListUsers)
	user := s.engine.Group("/user")
	{
		user.POST("", s.handleCreateUser)
		user.PUT("", s.handleUpdateUser)
		user.GET("/:id", s.handleDescribeUser)
		user.GET("/teams/:id", s.handleUserTeams)
	}

	s.engine.GET("/teams", s.handleListTeams)
	team := s.engine.Group("/team")
	{
		team.POST("", s.handleCreateTeam)
		team.PUT("", s.handleUpdateTeam)
		team.GET("/:id", s.handleDescribeTeam)
		team.POST("/add_users", s.handleAddUsers)
		team.POST("/remove_users", s.handleRemoveUsers)
		team.GET("/users/:id", s.handleTeamUsers)
	}

	s.engine.GET("/boards/:team_id", s.handleListBoards)
	board := s.engine.Group("/board")
	{
		board.POST("", s.handleCreateBoard)
		board.POST("/task", s.handleAddTask)
		board.PUT("/task", s.handleUpdateTaskStatus)
		board.GET("/close/:id", s.handleCloseBoard)
		board.GET("/export", s.handleExportBoard)
	}

	s.mountExports()

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": greeting})
}

// handleHealth reports readiness, including database reachability.
func (s *Server) handleHealth(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			s.logger.WithError(err).Error("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path or query parameter to int64 with error handling.
func parseID(c *gin.Context, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// statusFor maps a service failure onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConstraintViolation):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the failure and writes {"error": ...}. Unexpected
// failures are reported to Sentry and hidden from the client.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	kind := service.Kind(err)
	s.metrics.failures.WithLabelValues(kind).Inc()

	log := s.logger.WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"request_id": c.GetString(requestIDKey),
		"kind":       kind,
	}).WithError(err)

	if status == http.StatusInternalServerError {
		log.Error("request failed")
		hub := sentry.CurrentHub().Clone()
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetRequest(c.Request)
			scope.SetTag("route", c.FullPath())
			scope.SetTag("request_id", c.GetString(requestIDKey))
			hub.CaptureException(err)
		})
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	log.Warn("request rejected")
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes the payload with status 200.
func respondSuccess(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
