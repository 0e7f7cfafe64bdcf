package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// ─── Team Leaderboard API ───────────────────────────────────────────────────
// The web client's original contract. Errors on these routes use the flat
// {"success": false, "error": "..."} body the client expects.
//
// GET  /teams            teams sorted by score
// POST /member/join      {id} add a member to a team
// POST /team/score       {id, score} adjust a team's score by score
// POST /prompt/evaluate  {prompt, userId, teamId} score a prompt for a team

func writeContractError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

type teamResponse struct {
	Success bool        `json:"success"`
	Team    domain.Team `json:"team"`
}

// handleTeams returns the leaderboard.
// GET /teams
func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.board.List(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrTeamsNotInitialized) {
			writeContractError(w, http.StatusInternalServerError, "Teams not initialized")
			return
		}
		writeContractError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// handleJoin increments a team's member count.
// POST /member/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeContractError(w, http.StatusBadRequest, "Missing team id")
		return
	}

	team, err := s.board.Join(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			writeContractError(w, http.StatusNotFound, "Team not found")
			return
		}
		writeContractError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, teamResponse{Success: true, Team: team})
}

// handleTeamScore adds a signed delta to a team's score.
// POST /team/score
func (s *Server) handleTeamScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Score *int   `json:"score"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.ID) == "" || req.Score == nil {
		writeContractError(w, http.StatusBadRequest, "Missing id or score")
		return
	}

	team, err := s.board.AdjustScore(r.Context(), req.ID, *req.Score)
	if err != nil {
		writeContractError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, teamResponse{Success: true, Team: team})
}

// handleEvaluate scores a prompt and applies the eco bonus or cost to the
// team. A failed team update still returns the evaluation.
// POST /prompt/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		UserID string `json:"userId"`
		TeamID string `json:"teamId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeContractError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := s.chat.Evaluate(r.Context(), req.Prompt, req.TeamID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingField) {
			writeContractError(w, http.StatusBadRequest, "Missing required fields: prompt, teamId")
			return
		}
		s.log.Error("evaluate prompt failed", "team", req.TeamID, "error", err)
		writeContractError(w, http.StatusInternalServerError, "Failed to evaluate prompt: "+err.Error())
		return
	}
	s.log.Debug("prompt evaluated", "user", req.UserID, "team", req.TeamID,
		"eco", res.Evaluation.IsEcoResponsible, "score", res.Evaluation.Score)
	writeJSON(w, http.StatusOK, res)
}
