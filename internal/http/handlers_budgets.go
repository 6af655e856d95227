package http

import (
	"net/http"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// budgetWithProgress pairs a stored budget with its computed standing.
// Progress is always derived at read time, never persisted.
type budgetWithProgress struct {
	core.Budget
	Progress      core.BudgetProgress `json:"progress"`
	ProgressLabel string              `json:"progressLabel"`
}

func withProgress(b core.Budget, transactions []core.Transaction, now time.Time) budgetWithProgress {
	p := core.Progress(b, transactions, now)
	return budgetWithProgress{
		Budget:        b,
		Progress:      p,
		ProgressLabel: core.FormatPercent(p.Percentage),
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	store := s.finance.Repo().ForUser(userID)

	budgets, err := store.ListBudgets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	transactions, err := store.ListTransactions(r.Context(), storage.TransactionFilter{})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := time.Now()
	response := make([]budgetWithProgress, 0, len(budgets))
	for _, b := range budgets {
		response = append(response, withProgress(b, transactions, now))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		badRequest(w, err)
		return
	}
	b.Name = sanitizeInput(b.Name)
	b.Category = sanitizeInput(b.Category)

	userID := currentUserID(r.Context())
	created, err := s.finance.CreateBudget(r.Context(), userID, b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		badRequest(w, err)
		return
	}
	b.ID = r.PathValue("id")
	b.Name = sanitizeInput(b.Name)
	b.Category = sanitizeInput(b.Category)

	userID := currentUserID(r.Context())
	updated, err := s.finance.UpdateBudget(r.Context(), userID, b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusNoContent, nil)
}
