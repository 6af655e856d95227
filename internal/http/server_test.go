package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/auth"
	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/files"
	"github.com/isagiyoichii/financial-tracker/internal/services"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	photos, err := files.NewDiskStore(filepath.Join(dir, "photos"), "/media/photos")
	if err != nil {
		t.Fatalf("open photo store: %v", err)
	}

	srv := NewServer(Options{
		Addr:              ":0",
		Auth:              auth.NewService(repo, time.Hour, time.Minute),
		Finance:           services.NewFinanceService(repo, nil),
		Photos:            photos,
		DashboardCacheTTL: time.Minute,
	})
	t.Cleanup(func() { srv.limiter.Stop(); srv.authLimiter.Stop(); srv.cacheManager.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func signUp(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", "", credentialsRequest{
		Email:       email,
		Password:    "correct horse",
		DisplayName: "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[sessionResponse](t, rec).Token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "flow@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signin", "", credentialsRequest{
		Email:    "Flow@Example.com",
		Password: "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body %s", rec.Code, rec.Body.String())
	}
	token := decodeBody[sessionResponse](t, rec).Token

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/signin", "", credentialsRequest{
		Email:    "flow@example.com",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", rec.Code)
	}

	if rec := doJSON(t, srv, http.MethodPost, "/api/auth/signout", token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("signout status = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("request after signout status = %d", rec.Code)
	}
}

func TestRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/transactions", "/api/budgets", "/api/dashboard", "/api/profile"} {
		if rec := doJSON(t, srv, http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, rec.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "tx@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount":      1500,
		"type":        "expense",
		"category":    "Food",
		"description": "Lunch",
		"date":        "2023-04-05T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Transaction](t, rec)
	if created.ID == "" {
		t.Fatal("created transaction has no id")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil)
	if got := decodeBody[[]core.Transaction](t, rec); len(got) != 1 || got[0].Description != "Lunch" {
		t.Errorf("list = %+v, want one Lunch entry", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/transactions/"+created.ID, token, map[string]any{
		"amount":      2000,
		"type":        "expense",
		"category":    "Food",
		"description": "Dinner",
		"date":        "2023-04-05T00:00:00Z",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[core.Transaction](t, rec); got.Amount.Cents != 2000 {
		t.Errorf("updated amount = %d, want 2000", got.Amount.Cents)
	}

	if rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestTransactionListFilters(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "filters@example.com")

	seed := []map[string]any{
		{"amount": 1500, "type": "expense", "category": "Food", "description": "Lunch", "date": "2023-04-05T00:00:00Z"},
		{"amount": 300000, "type": "income", "category": "Salary", "description": "Pay", "date": "2023-04-20T00:00:00Z"},
	}
	for _, body := range seed {
		if rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"from", "?from=2023-04-10", []string{"Salary"}},
		{"to", "?to=2023-04-10", []string{"Food"}},
		{"category", "?category=Food", []string{"Food"}},
		{"type", "?type=income", []string{"Salary"}},
		{"no match", "?category=Travel", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/transactions"+tc.query, token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decodeBody[[]core.Transaction](t, rec)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d rows, want %d: %+v", len(got), len(tc.want), got)
			}
			for i, tx := range got {
				if tx.Category != tc.want[i] {
					t.Errorf("row %d category = %q, want %q", i, tx.Category, tc.want[i])
				}
			}
		})
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions?from=garbage", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad from date status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions?type=transfer", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type status = %d, want 400", rec.Code)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "invalid@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount":      -5,
		"type":        "expense",
		"category":    "Food",
		"description": "Bad",
		"date":        "2023-04-05T00:00:00Z",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount": 100, "bogus": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}
}

func TestUsersCannotSeeEachOther(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice@example.com")
	bob := signUp(t, srv, "bob@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", alice, map[string]any{
		"amount":      900,
		"type":        "income",
		"category":    "Pay",
		"description": "Salary",
		"date":        "2023-04-01T00:00:00Z",
	})
	id := decodeBody[core.Transaction](t, rec).ID

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions/"+id, bob, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/"+id, bob, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", bob, nil)
	if got := decodeBody[[]core.Transaction](t, rec); len(got) != 0 {
		t.Errorf("bob sees %d transactions, want 0", len(got))
	}
}

func TestBudgetListIncludesProgress(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "budget@example.com")

	start := time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339)
	txDate := time.Now().AddDate(0, 0, -1).UTC().Format(time.RFC3339)

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, map[string]any{
		"name":      "Groceries",
		"category":  "Food",
		"amount":    10000,
		"period":    "monthly",
		"startDate": start,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount":      2500,
		"type":        "expense",
		"category":    "Food",
		"description": "Groceries run",
		"date":        txDate,
	})

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets", token, nil)
	got := decodeBody[[]budgetWithProgress](t, rec)
	if len(got) != 1 {
		t.Fatalf("budget count = %d, want 1", len(got))
	}
	if got[0].Progress.Spent.Cents != 2500 {
		t.Errorf("spent = %d, want 2500", got[0].Progress.Spent.Cents)
	}
	if got[0].Progress.Remaining.Cents != 7500 {
		t.Errorf("remaining = %d, want 7500", got[0].Progress.Remaining.Cents)
	}
	if got[0].Progress.Percentage != 25 {
		t.Errorf("percentage = %d, want 25", got[0].Progress.Percentage)
	}
	if got[0].ProgressLabel != "25%" {
		t.Errorf("progress label = %q, want 25%%", got[0].ProgressLabel)
	}
}

func TestNetWorthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "worth@example.com")

	doJSON(t, srv, http.MethodPost, "/api/assets", token, map[string]any{
		"name": "Savings", "type": "cash", "value": 100000,
	})
	doJSON(t, srv, http.MethodPost, "/api/liabilities", token, map[string]any{
		"name": "Card", "type": "credit", "amount": 20000,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/networth", token, nil)
	got := decodeBody[netWorthResponse](t, rec)
	if got.NetWorth.Cents != 80000 {
		t.Errorf("net worth = %d, want 80000", got.NetWorth.Cents)
	}
	if got.AssetCount != 1 || got.LiabilityCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", got.AssetCount, got.LiabilityCount)
	}
}

func TestInvestmentSummary(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "invest@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/investments", token, map[string]any{
		"name":          "Index Fund",
		"symbol":        "VTI",
		"type":          "etf",
		"shares":        "2.5",
		"purchasePrice": "100",
		"currentPrice":  "110",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create investment status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/investments", token, nil)
	got := decodeBody[investmentsResponse](t, rec)
	if len(got.Investments) != 1 {
		t.Fatalf("investment count = %d, want 1", len(got.Investments))
	}
	if got.Summary.Gain.String() != "25" {
		t.Errorf("gain = %s, want 25", got.Summary.Gain)
	}
	if got.Summary.Invested.String() != "250" {
		t.Errorf("invested = %s, want 250", got.Summary.Invested)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "dash@example.com")

	today := time.Now().UTC().Format(time.RFC3339)
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount": 50000, "type": "income", "category": "Pay",
		"description": "Salary", "date": today,
	})
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount": 12000, "type": "expense", "category": "Rent",
		"description": "Rent", "date": today,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[dashboardResponse](t, rec)
	if got.NetIncome.Cents != 38000 {
		t.Errorf("net income = %d, want 38000", got.NetIncome.Cents)
	}
	if len(got.Trend) != trendMonths {
		t.Errorf("trend length = %d, want %d", len(got.Trend), trendMonths)
	}
	if len(got.Recent) != 2 {
		t.Errorf("recent count = %d, want 2", len(got.Recent))
	}
	if got.Formatted.NetIncome != "$380.00" {
		t.Errorf("formatted net income = %q, want $380.00", got.Formatted.NetIncome)
	}

	// Changing the profile currency re-renders the display strings.
	doJSON(t, srv, http.MethodPut, "/api/profile", token, map[string]any{"currency": "EUR"})
	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if got := decodeBody[dashboardResponse](t, rec); got.Formatted.NetIncome != "€380.00" {
		t.Errorf("formatted net income after currency change = %q, want EUR symbol", got.Formatted.NetIncome)
	}

	// A write invalidates the cached dashboard.
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"amount": 1000, "type": "expense", "category": "Food",
		"description": "Lunch", "date": today,
	})
	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if got := decodeBody[dashboardResponse](t, rec); got.TotalExpenses.Cents != 13000 {
		t.Errorf("expenses after invalidation = %d, want 13000", got.TotalExpenses.Cents)
	}
}

func TestProfileUpdate(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "profile@example.com")

	rec := doJSON(t, srv, http.MethodPut, "/api/profile", token, map[string]any{
		"displayName": "Renamed",
		"currency":    "EUR",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/profile", token, nil)
	got := decodeBody[core.UserProfile](t, rec)
	if got.DisplayName != "Renamed" || got.Currency != "EUR" {
		t.Errorf("profile = %+v, want Renamed/EUR", got)
	}
}

func TestCategoriesAndGoals(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "tax@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]any{
		"name": "Food", "type": "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rec.Code, rec.Body.String())
	}
	category := decodeBody[core.Category](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/goals", token, map[string]any{
		"name": "Emergency fund", "target": 500000, "saved": 120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	goal := decodeBody[core.Goal](t, rec)

	rec = doJSON(t, srv, http.MethodPut, "/api/goals/"+goal.ID, token, map[string]any{
		"name": "Emergency fund", "target": 500000, "saved": 150000,
	})
	if got := decodeBody[core.Goal](t, rec); got.Saved.Cents != 150000 {
		t.Errorf("saved = %d, want 150000", got.Saved.Cents)
	}

	if rec := doJSON(t, srv, http.MethodDelete, "/api/categories/"+category.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete category status = %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req_known")
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req_known" {
		t.Errorf("request id = %q, want client-supplied req_known", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < 15; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/auth/signin", "", credentialsRequest{
			Email:    fmt.Sprintf("nobody%d@example.com", i),
			Password: "whatever",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("15th signin status = %d, want 429", last)
	}
}
