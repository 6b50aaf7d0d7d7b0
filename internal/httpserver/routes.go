package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(correlationMiddleware())
	s.echo.Use(errorMappingMiddleware())

	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics))

	v1 := s.echo.Group("/v1/tenants/:tenant")

	v1.POST("/candidates", s.handleAddCandidate)
	v1.GET("/candidates", s.handleListCandidates)
	v1.DELETE("/candidates/:id", s.handleDeactivateCandidate)
	v1.GET("/candidates/:id/history", s.handleCandidateHistory)

	v1.POST("/votes", s.handleSubmitVote, newRateLimiter(s.config.VoteRatePerSecond, s.config.VoteRateBurst))

	v1.GET("/leaderboard", s.handleCurrentStandings)
	v1.GET("/leaderboard/monthly/:key", s.handleMonthlyLeaderboard)
	v1.GET("/leaderboard/annual/:key", s.handleAnnualLeaderboard)
	v1.GET("/archives/:key", s.handleGetArchive)
	v1.GET("/voters/top", s.handleTopVoters)

	v1.POST("/reset", s.handleReset)
	v1.PUT("/publish-target", s.handleSetPublishTarget)
	v1.DELETE("/publish-target", s.handleClearPublishTarget)
	v1.PUT("/panel", s.handleSetPanel)
	v1.DELETE("/panel", s.handleClearPanel)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
