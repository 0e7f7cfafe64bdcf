package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenpoint-eco/greenpoint/internal/app/validation"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

// ─── User & Chat API ────────────────────────────────────────────────────────
//
// POST   /api/prompt/validate           advisory hint for a prompt being typed
// POST   /api/users                     onboard {name, teamId}
// GET    /api/users/{id}                user profile, stats and achievements
// POST   /api/users/{id}/chat           submit {prompt}
// GET    /api/users/{id}/messages       chat history
// DELETE /api/users/{id}/messages       clear chat history
// GET    /api/users/{id}/achievements   full catalog with the user's progress
// POST   /api/users/{id}/achievements/{achievementId}  {increment, forceUnlock}
// POST   /api/users/{id}/xp             award {amount} XP directly
// GET    /api/users/{id}/analytics      seven-day activity summary

type validateResponse struct {
	domain.ValidationResult
	WordCount          int  `json:"wordCount"`
	ContainsPoliteness bool `json:"containsPoliteness"`
}

// handleValidate returns the advisory validation status.
// POST /api/prompt/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		ValidationResult:   validation.Validate(req.Prompt),
		WordCount:          validation.WordCount(req.Prompt),
		ContainsPoliteness: validation.ContainsPoliteness(req.Prompt),
	})
}

// handleCreateUser onboards a user onto a team.
// POST /api/users
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		TeamID string `json:"teamId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, _, err := s.engine.CreateUser(r.Context(), req.Name, req.TeamID)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, domain.ErrTeamNotFound) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleGetUser returns a user.
// GET /api/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.engine.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleChat submits a prompt.
// POST /api/users/{id}/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.chat.Submit(r.Context(), chi.URLParam(r, "id"), req.Prompt)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.log.Error("chat submission failed", "user", chi.URLParam(r, "id"), "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleMessages returns the chat history.
// GET /api/users/{id}/messages
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chat.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleClearMessages drops the chat history.
// DELETE /api/users/{id}/messages
func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAchievements returns every achievement with the user's progress.
// GET /api/users/{id}/achievements
func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Achievements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	unlocked := 0
	for _, a := range list {
		if a.Unlocked() {
			unlocked++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": list,
		"unlocked":     unlocked,
		"total":        len(list),
	})
}

// handleUpdateAchievement advances or force-unlocks one achievement.
// POST /api/users/{id}/achievements/{achievementId}
func (s *Server) handleUpdateAchievement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Increment   int  `json:"increment"`
		ForceUnlock bool `json:"forceUnlock"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Increment < 0 {
		writeError(w, http.StatusBadRequest, "increment must not be negative")
		return
	}

	a, err := s.engine.UpdateAchievement(r.Context(), chi.URLParam(r, "id"),
		chi.URLParam(r, "achievementId"), req.Increment, req.ForceUnlock)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleAddXP awards XP outside a prompt submission.
// POST /api/users/{id}/xp
func (s *Server) handleAddXP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	id := chi.URLParam(r, "id")
	up, err := s.engine.AddXP(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	u, err := s.engine.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leveledUp": up,
		"user":      u,
	})
}

// handleAnalytics returns the user's activity summary.
// GET /api/users/{id}/analytics
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.engine.Analytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}
