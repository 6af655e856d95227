package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

type investmentSummary struct {
	Invested    decimal.Decimal `json:"invested"`
	MarketValue decimal.Decimal `json:"marketValue"`
	Gain        decimal.Decimal `json:"gain"`
	Count       int             `json:"count"`
}

type investmentsResponse struct {
	Investments []core.Investment `json:"investments"`
	Summary     investmentSummary `json:"summary"`
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.finance.Repo().ForUser(currentUserID(r.Context())).ListInvestments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if investments == nil {
		investments = []core.Investment{}
	}
	writeJSON(w, http.StatusOK, investmentsResponse{
		Investments: investments,
		Summary: investmentSummary{
			Invested:    core.TotalInvested(investments),
			MarketValue: core.TotalMarketValue(investments),
			Gain:        core.TotalGain(investments),
			Count:       len(investments),
		},
	})
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var i core.Investment
	if err := decodeJSON(w, r, &i); err != nil {
		badRequest(w, err)
		return
	}
	i.Name = sanitizeInput(i.Name)
	i.Symbol = sanitizeInput(i.Symbol)

	userID := currentUserID(r.Context())
	created, err := s.finance.CreateInvestment(r.Context(), userID, i)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var i core.Investment
	if err := decodeJSON(w, r, &i); err != nil {
		badRequest(w, err)
		return
	}
	i.ID = r.PathValue("id")
	i.Name = sanitizeInput(i.Name)
	i.Symbol = sanitizeInput(i.Symbol)

	userID := currentUserID(r.Context())
	updated, err := s.finance.UpdateInvestment(r.Context(), userID, i)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.DeleteInvestment(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusNoContent, nil)
}
