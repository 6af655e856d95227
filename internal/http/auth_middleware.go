package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

type contextKey string

const (
	profileKey contextKey = "profile"
	tokenKey   contextKey = "token"
)

// requireAuth resolves the bearer token to a user profile before the
// handler runs. Anything else gets a 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		profile, err := s.auth.Verify(r.Context(), token)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), profileKey, profile)
		ctx = context.WithValue(ctx, tokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// currentProfile returns the authenticated account. Only valid inside
// handlers wrapped by requireAuth.
func currentProfile(ctx context.Context) core.UserProfile {
	profile, _ := ctx.Value(profileKey).(core.UserProfile)
	return profile
}

func currentToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func currentUserID(ctx context.Context) string {
	return currentProfile(ctx).ID
}
