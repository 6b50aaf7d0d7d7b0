package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/engine"
	"github.com/yannouuuu/hotaru/internal/version"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": version.Name,
		"build":   version.Get(),
	})
}

type addCandidateRequest struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Quote     string `json:"quote"`
	Glyph     string `json:"glyph"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleAddCandidate(c echo.Context) error {
	var req addCandidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	candidate, err := s.engine.AddCandidate(c.Request().Context(), c.Param("tenant"), engine.AddCandidateRequest{
		Name:      req.Name,
		Bio:       req.Bio,
		Quote:     req.Quote,
		Glyph:     req.Glyph,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, candidate)
}

func (s *Server) handleListCandidates(c echo.Context) error {
	includeInactive := c.QueryParam("all") == "true"
	candidates, err := s.engine.ListCandidates(c.Request().Context(), c.Param("tenant"), includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"candidates": candidates})
}

func (s *Server) handleDeactivateCandidate(c echo.Context) error {
	candidate, err := s.engine.DeactivateCandidate(c.Request().Context(), c.Param("tenant"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidate)
}

type submitVoteRequest struct {
	VoterID string   `json:"voter_id"`
	Picks   []string `json:"picks"`
}

type submitVoteResponse struct {
	PeriodKey string         `json:"period_key"`
	Totals    map[string]int `json:"totals"`
}

func (s *Server) handleSubmitVote(c echo.Context) error {
	var req submitVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.VoterID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "voter_id is required")
	}

	periodKey, totals, err := s.engine.SubmitVote(c.Request().Context(), c.Param("tenant"), req.VoterID, req.Picks)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submitVoteResponse{PeriodKey: periodKey, Totals: totals})
}

func (s *Server) handleCurrentStandings(c echo.Context) error {
	periodKey, standings, err := s.engine.CurrentStandings(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"period_key": periodKey,
		"standings":  standings,
	})
}

func (s *Server) handleMonthlyLeaderboard(c echo.Context) error {
	scores, err := s.engine.MonthlyLeaderboard(c.Request().Context(), c.Param("tenant"), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"period_key": c.Param("key"), "scores": scores})
}

func (s *Server) handleAnnualLeaderboard(c echo.Context) error {
	scores, err := s.engine.AnnualLeaderboard(c.Request().Context(), c.Param("tenant"), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"period_key": c.Param("key"), "scores": scores})
}

func (s *Server) handleCandidateHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	history, err := s.engine.CandidateHistory(c.Request().Context(), c.Param("tenant"), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleTopVoters(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	voters, err := s.engine.TopVoters(c.Request().Context(), c.Param("tenant"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"voters": voters})
}

func (s *Server) handleGetArchive(c echo.Context) error {
	entry, err := s.engine.GetArchive(c.Request().Context(), c.Param("tenant"), c.Param("key"))
	if err != nil {
		return err
	}
	if entry == nil {
		// Absence is normal flow, not an error condition.
		return c.JSON(http.StatusOK, map[string]any{"archive": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"archive": entry})
}

type resetRequest struct {
	Scope string `json:"scope"`
}

func (s *Server) handleReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.engine.Reset(c.Request().Context(), c.Param("tenant"), req.Scope); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type publishTargetRequest struct {
	ChannelID string `json:"channel_id"`
}

func (s *Server) handleSetPublishTarget(c echo.Context) error {
	var req publishTargetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ChannelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}
	if err := s.engine.SetPublishTarget(c.Request().Context(), c.Param("tenant"), req.ChannelID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleClearPublishTarget(c echo.Context) error {
	if err := s.engine.ClearPublishTarget(c.Request().Context(), c.Param("tenant")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type panelRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

func (s *Server) handleSetPanel(c echo.Context) error {
	var req panelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ChannelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_id is required")
	}
	panel := domain.PanelRef{ChannelID: req.ChannelID, MessageID: req.MessageID}
	if err := s.engine.SetPanel(c.Request().Context(), c.Param("tenant"), panel); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleClearPanel(c echo.Context) error {
	if err := s.engine.ClearPanel(c.Request().Context(), c.Param("tenant")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
