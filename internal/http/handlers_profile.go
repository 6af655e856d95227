package http

import (
	"net/http"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/files"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	// Re-read instead of echoing the context copy so a profile update in
	// another session is visible immediately.
	record, err := s.finance.Repo().GetUser(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
		Currency    string `json:"currency"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	record, err := s.finance.Repo().GetUser(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	profile := record.Profile
	if name := sanitizeInput(req.DisplayName); name != "" {
		profile.DisplayName = name
	}
	if currency := sanitizeInput(req.Currency); currency != "" {
		profile.Currency = currency
	}
	profile.UpdatedAt = time.Now()

	if err := s.finance.Repo().UpdateUserProfile(r.Context(), profile); err != nil {
		writeServiceError(w, r, err)
		return
	}
	// The dashboard renders amounts in the profile currency.
	s.dashboardCache.Delete(profile.ID)
	writeJSON(w, http.StatusOK, profile)
}

const maxUploadBytes = 6 << 20

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if files.ExtensionFor(contentType) == "" {
		writeError(w, http.StatusUnsupportedMediaType, "photo must be JPEG, PNG or WebP")
		return
	}

	userID := currentUserID(r.Context())
	url, err := s.photos.Save(r.Context(), userID, contentType, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	record, err := s.finance.Repo().GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	profile := record.Profile
	profile.PhotoURL = url
	profile.UpdatedAt = time.Now()
	if err := s.finance.Repo().UpdateUserProfile(r.Context(), profile); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	if err := s.photos.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	record, err := s.finance.Repo().GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	profile := record.Profile
	profile.PhotoURL = ""
	profile.UpdatedAt = time.Now()
	if err := s.finance.Repo().UpdateUserProfile(r.Context(), profile); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
