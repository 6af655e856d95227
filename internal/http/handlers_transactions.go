package http

import (
	"fmt"
	"net/http"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// transactionFilter reads the optional from/to/category/type query
// parameters. Dates cover whole days; to is inclusive.
func transactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		if f.From = core.Canonical(v); !f.From.Usable() {
			return f, fmt.Errorf("invalid 'from' date %q", v)
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To = core.Canonical(v); !f.To.Usable() {
			return f, fmt.Errorf("invalid 'to' date %q", v)
		}
	}
	f.Category = sanitizeInput(q.Get("category"))
	if v := q.Get("type"); v != "" {
		f.Type = core.TransactionType(v)
		if !f.Type.Valid() {
			return f, fmt.Errorf("invalid transaction type %q", v)
		}
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := currentUserID(r.Context())
	transactions, err := s.finance.Repo().ForUser(userID).ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	userID := currentUserID(r.Context())
	transactions, err := s.finance.Repo().ForUser(userID).RecentTransactions(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	transaction, err := s.finance.Repo().ForUser(userID).GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		badRequest(w, err)
		return
	}
	t.Description = sanitizeInput(t.Description)
	t.Category = sanitizeInput(t.Category)

	userID := currentUserID(r.Context())
	created, err := s.finance.CreateTransaction(r.Context(), userID, t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		badRequest(w, err)
		return
	}
	t.ID = r.PathValue("id")
	t.Description = sanitizeInput(t.Description)
	t.Category = sanitizeInput(t.Category)

	userID := currentUserID(r.Context())
	updated, err := s.finance.UpdateTransaction(r.Context(), userID, t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusNoContent, nil)
}
