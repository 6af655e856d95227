package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/services"
)

// Categories and goals are auxiliary records: they never feed the change
// queue or the mirror, so handlers write them straight to the store.

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.finance.Repo().ForUser(currentUserID(r.Context())).ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		badRequest(w, err)
		return
	}
	c.Name = sanitizeInput(c.Name)
	if err := c.Validate(); err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %w", services.ErrValidation, err))
		return
	}

	userID := currentUserID(r.Context())
	now := time.Now()
	c.ID = uuid.NewString()
	c.UserID = userID
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.finance.Repo().ForUser(userID).CreateCategory(r.Context(), c); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	// Transactions keep their category name; deleting the record never
	// cascades.
	if err := s.finance.Repo().ForUser(userID).DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.finance.Repo().ForUser(currentUserID(r.Context())).ListGoals(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		badRequest(w, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	if err := g.Validate(); err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %w", services.ErrValidation, err))
		return
	}

	userID := currentUserID(r.Context())
	now := time.Now()
	g.ID = uuid.NewString()
	g.UserID = userID
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := s.finance.Repo().ForUser(userID).CreateGoal(r.Context(), g); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		badRequest(w, err)
		return
	}
	g.ID = r.PathValue("id")
	g.Name = sanitizeInput(g.Name)
	if err := g.Validate(); err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %w", services.ErrValidation, err))
		return
	}

	userID := currentUserID(r.Context())
	g.UserID = userID
	g.UpdatedAt = time.Now()

	if err := s.finance.Repo().ForUser(userID).UpdateGoal(r.Context(), g); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.Repo().ForUser(userID).DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
