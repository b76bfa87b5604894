package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/history"
	"github.com/store-auditor/backend/middleware"
	"github.com/store-auditor/backend/session"
	"github.com/store-auditor/backend/stats"
)

// Runner performs a single audit
type Runner interface {
	Run(ctx context.Context, raw string) (*audit.Report, error)
}

// MonthlyStats exposes persisted outcome counts
type MonthlyStats interface {
	GetCurrentStats() stats.MonthlyStats
	GetAllMonths() []string
}

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	Auditor     Runner
	History     history.Store
	Sessions    *session.Store
	Requests    *stats.Requests
	Monthly     MonthlyStats
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
	DevMode     bool
}

// Server serves the audit API and the dashboard
type Server struct {
	auditor  Runner
	history  history.Store
	sessions *session.Store
	requests *stats.Requests
	monthly  MonthlyStats
	limiter  *middleware.RateLimiter
	logger   *zap.Logger
	devMode  bool
}

func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	requests := deps.Requests
	if requests == nil {
		requests = stats.NewRequests()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewStore(logger)
	}
	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(2, 5)
	}

	return &Server{
		auditor:  deps.Auditor,
		history:  deps.History,
		sessions: sessions,
		requests: requests,
		monthly:  deps.Monthly,
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "http")),
		devMode:  deps.DevMode,
	}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.CORS())
	r.Use(middleware.StatsMiddleware(s.requests))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)
		api.GET("/audit", s.currentAudit)
		api.GET("/audits/:id", s.getRecord)

		limited := api.Group("", s.limiter.RateLimit())
		limited.POST("/audit", s.createAudit)
		limited.DELETE("/audit", s.resetAudit)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", s.dashboard)
	r.POST("/audit", s.limiter.RateLimit(), s.dashboardAudit)
	r.POST("/reset", s.dashboardReset)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
