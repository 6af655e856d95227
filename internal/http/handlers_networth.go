package http

import (
	"net/http"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.finance.Repo().ForUser(currentUserID(r.Context())).ListAssets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if assets == nil {
		assets = []core.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var a core.Asset
	if err := decodeJSON(w, r, &a); err != nil {
		badRequest(w, err)
		return
	}
	a.Name = sanitizeInput(a.Name)
	a.Type = sanitizeInput(a.Type)

	userID := currentUserID(r.Context())
	created, err := s.finance.CreateAsset(r.Context(), userID, a)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var a core.Asset
	if err := decodeJSON(w, r, &a); err != nil {
		badRequest(w, err)
		return
	}
	a.ID = r.PathValue("id")
	a.Name = sanitizeInput(a.Name)
	a.Type = sanitizeInput(a.Type)

	userID := currentUserID(r.Context())
	updated, err := s.finance.UpdateAsset(r.Context(), userID, a)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.DeleteAsset(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListLiabilities(w http.ResponseWriter, r *http.Request) {
	liabilities, err := s.finance.Repo().ForUser(currentUserID(r.Context())).ListLiabilities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if liabilities == nil {
		liabilities = []core.Liability{}
	}
	writeJSON(w, http.StatusOK, liabilities)
}

func (s *Server) handleCreateLiability(w http.ResponseWriter, r *http.Request) {
	var l core.Liability
	if err := decodeJSON(w, r, &l); err != nil {
		badRequest(w, err)
		return
	}
	l.Name = sanitizeInput(l.Name)
	l.Type = sanitizeInput(l.Type)

	userID := currentUserID(r.Context())
	created, err := s.finance.CreateLiability(r.Context(), userID, l)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateLiability(w http.ResponseWriter, r *http.Request) {
	var l core.Liability
	if err := decodeJSON(w, r, &l); err != nil {
		badRequest(w, err)
		return
	}
	l.ID = r.PathValue("id")
	l.Name = sanitizeInput(l.Name)
	l.Type = sanitizeInput(l.Type)

	userID := currentUserID(r.Context())
	updated, err := s.finance.UpdateLiability(r.Context(), userID, l)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLiability(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.finance.DeleteLiability(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(userID)
	writeJSON(w, http.StatusNoContent, nil)
}

type netWorthResponse struct {
	Assets         core.Money `json:"assets"`
	Liabilities    core.Money `json:"liabilities"`
	NetWorth       core.Money `json:"netWorth"`
	AssetCount     int        `json:"assetCount"`
	LiabilityCount int        `json:"liabilityCount"`
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	store := s.finance.Repo().ForUser(currentUserID(r.Context()))

	assets, err := store.ListAssets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	liabilities, err := store.ListLiabilities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, netWorthResponse{
		Assets:         core.TotalAssets(assets),
		Liabilities:    core.TotalLiabilities(liabilities),
		NetWorth:       core.NetWorth(assets, liabilities),
		AssetCount:     len(assets),
		LiabilityCount: len(liabilities),
	})
}
