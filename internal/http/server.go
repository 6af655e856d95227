// Package http exposes the JSON API. Every /api route except auth runs
// behind bearer-token verification; handlers never see another user's
// data because all storage access goes through a user-scoped store.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/auth"
	"github.com/isagiyoichii/financial-tracker/internal/cache"
	"github.com/isagiyoichii/financial-tracker/internal/files"
	"github.com/isagiyoichii/financial-tracker/internal/log"
	"github.com/isagiyoichii/financial-tracker/internal/middleware/ratelimit"
	"github.com/isagiyoichii/financial-tracker/internal/middleware/security"
	"github.com/isagiyoichii/financial-tracker/internal/middleware/trace"
	"github.com/isagiyoichii/financial-tracker/internal/services"
)

// Options carries the dependencies and tunables for NewServer.
type Options struct {
	Addr    string
	Auth    *auth.Service
	Finance *services.FinanceService
	Photos  files.PhotoStore

	// PhotoDir, when set, is served under /media/photos/ for the disk
	// photo backend. The Drive backend serves photos itself.
	PhotoDir string

	DashboardCacheTTL time.Duration
}

type Server struct {
	http.Server
	auth    *auth.Service
	finance *services.FinanceService
	photos  files.PhotoStore

	dashboardCache *cache.LRUCache[dashboardResponse]
	cacheManager   *cache.Manager
	limiter        *ratelimit.Limiter
	authLimiter    *ratelimit.Limiter
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	if opts.DashboardCacheTTL <= 0 {
		opts.DashboardCacheTTL = 30 * time.Second
	}

	s := &Server{
		auth:           opts.Auth,
		finance:        opts.Finance,
		photos:         opts.Photos,
		dashboardCache: cache.NewLRUCache[dashboardResponse](500, opts.DashboardCacheTTL),
		cacheManager:   cache.NewManager(),
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		authLimiter:    ratelimit.NewLimiter(ratelimit.AuthConfig()),
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Credential routes run behind the strict limiter.
	creds := func(h http.HandlerFunc) http.Handler {
		return s.authLimiter.Middleware(h)
	}
	mux.Handle("POST /api/auth/signup", creds(s.handleSignUp))
	mux.Handle("POST /api/auth/signin", creds(s.handleSignIn))
	mux.Handle("POST /api/auth/reset-request", creds(s.handleResetRequest))
	mux.Handle("POST /api/auth/reset", creds(s.handleResetPassword))
	mux.HandleFunc("POST /api/auth/signout", s.requireAuth(s.handleSignOut))
	mux.HandleFunc("POST /api/auth/change-password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/recent", s.requireAuth(s.handleRecentTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.requireAuth(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/budgets", s.requireAuth(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.requireAuth(s.handleCreateBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.requireAuth(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.requireAuth(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/assets", s.requireAuth(s.handleListAssets))
	mux.HandleFunc("POST /api/assets", s.requireAuth(s.handleCreateAsset))
	mux.HandleFunc("PUT /api/assets/{id}", s.requireAuth(s.handleUpdateAsset))
	mux.HandleFunc("DELETE /api/assets/{id}", s.requireAuth(s.handleDeleteAsset))

	mux.HandleFunc("GET /api/liabilities", s.requireAuth(s.handleListLiabilities))
	mux.HandleFunc("POST /api/liabilities", s.requireAuth(s.handleCreateLiability))
	mux.HandleFunc("PUT /api/liabilities/{id}", s.requireAuth(s.handleUpdateLiability))
	mux.HandleFunc("DELETE /api/liabilities/{id}", s.requireAuth(s.handleDeleteLiability))

	mux.HandleFunc("GET /api/networth", s.requireAuth(s.handleNetWorth))

	mux.HandleFunc("GET /api/investments", s.requireAuth(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", s.requireAuth(s.handleCreateInvestment))
	mux.HandleFunc("PUT /api/investments/{id}", s.requireAuth(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.requireAuth(s.handleDeleteInvestment))

	mux.HandleFunc("GET /api/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.requireAuth(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/goals", s.requireAuth(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.requireAuth(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.requireAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.requireAuth(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/dashboard", s.requireAuth(s.handleDashboard))

	mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.requireAuth(s.handleUpdateProfile))
	mux.HandleFunc("POST /api/profile/photo", s.requireAuth(s.handleUploadPhoto))
	mux.HandleFunc("DELETE /api/profile/photo", s.requireAuth(s.handleDeletePhoto))

	if opts.PhotoDir != "" {
		media := http.StripPrefix("/media/photos/", http.FileServer(http.Dir(opts.PhotoDir)))
		mux.Handle("GET /media/photos/", security.MediaCache(3600)(media))
	}

	handler := trace.Middleware(
		log.RequestLogger(
			security.Headers(security.DefaultHeadersConfig())(
				s.limiter.Middleware(mux))))

	s.Server.Addr = opts.Addr
	s.Server.Handler = handler
	s.Server.ReadHeaderTimeout = 10 * time.Second
	return s
}

// Shutdown stops the HTTP listener and the background cleanup loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		s.authLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.Repo().Ping(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
