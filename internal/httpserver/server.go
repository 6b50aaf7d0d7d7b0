// Package httpserver exposes the engine to the command/interaction layer as
// a JSON HTTP API.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yannouuuu/hotaru/internal/config"
	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/engine"
)

// engineAPI is the subset of engine operations the handlers route to.
type engineAPI interface {
	AddCandidate(ctx context.Context, tenantID string, req engine.AddCandidateRequest) (*domain.Candidate, error)
	DeactivateCandidate(ctx context.Context, tenantID, candidateID string) (*domain.Candidate, error)
	ListCandidates(ctx context.Context, tenantID string, includeInactive bool) ([]domain.Candidate, error)
	SubmitVote(ctx context.Context, tenantID, voterID string, picks []string) (string, map[string]int, error)
	CurrentStandings(ctx context.Context, tenantID string) (string, []domain.Standing, error)
	MonthlyLeaderboard(ctx context.Context, tenantID, monthKey string) ([]engine.CandidateScore, error)
	AnnualLeaderboard(ctx context.Context, tenantID, yearKey string) ([]engine.CandidateScore, error)
	CandidateHistory(ctx context.Context, tenantID, candidateID string, limit int) ([]engine.HistoryItem, error)
	TopVoters(ctx context.Context, tenantID string, limit int) ([]engine.VoterRank, error)
	GetArchive(ctx context.Context, tenantID, periodKey string) (*domain.ArchiveEntry, error)
	Reset(ctx context.Context, tenantID, scope string) error
	SetPublishTarget(ctx context.Context, tenantID, channelID string) error
	ClearPublishTarget(ctx context.Context, tenantID string) error
	SetPanel(ctx context.Context, tenantID string, panel domain.PanelRef) error
	ClearPanel(ctx context.Context, tenantID string) error
}

type Server struct {
	echo    *echo.Echo
	config  *config.Config
	engine  engineAPI
	metrics http.Handler
}

func NewServer(cfg *config.Config, eng engineAPI, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:    e,
		config:  cfg,
		engine:  eng,
		metrics: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
