package http

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// dashboardResponse aggregates every overview section in one payload.
// Sections that fail to load come back empty instead of failing the
// whole dashboard; the failure is logged server-side.
type dashboardResponse struct {
	TotalIncome   core.Money            `json:"totalIncome"`
	TotalExpenses core.Money            `json:"totalExpenses"`
	NetIncome     core.Money            `json:"netIncome"`
	ByCategory    map[string]core.Money `json:"byCategory"`
	Trend         []core.MonthBucket    `json:"trend"`
	Recent        []core.Transaction    `json:"recent"`
	Budgets       []budgetWithProgress  `json:"budgets"`
	NetWorth      netWorthResponse      `json:"netWorth"`
	Investments   investmentSummary     `json:"investments"`
	Formatted     dashboardFormatted    `json:"formatted"`
	GeneratedAt   time.Time             `json:"generatedAt"`
}

// dashboardFormatted carries display strings rendered in the account's
// currency so clients do not re-implement money formatting.
type dashboardFormatted struct {
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	NetIncome     string `json:"netIncome"`
	NetWorth      string `json:"netWorth"`
	GeneratedAt   string `json:"generatedAt"`
}

const trendMonths = 6

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	profile := currentProfile(r.Context())
	userID := profile.ID

	if cached, ok := s.dashboardCache.Get(userID); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	store := s.finance.Repo().ForUser(userID)
	now := time.Now()

	var (
		transactions []core.Transaction
		recent       []core.Transaction
		budgets      []core.Budget
		assets       []core.Asset
		liabilities  []core.Liability
		investments  []core.Investment
	)

	// Sections load in parallel. A failed section logs and leaves its
	// slice empty so one bad query cannot blank the whole page.
	g, ctx := errgroup.WithContext(r.Context())
	section := func(name string, load func() error) func() error {
		return func() error {
			if err := load(); err != nil {
				slog.ErrorContext(ctx, "Dashboard section failed",
					"section", name, "user_id", userID, "error", err)
			}
			return nil
		}
	}
	g.Go(section("transactions", func() (err error) {
		transactions, err = store.ListTransactions(ctx, storage.TransactionFilter{})
		return
	}))
	g.Go(section("recent", func() (err error) {
		recent, err = store.RecentTransactions(ctx, 10)
		return
	}))
	g.Go(section("budgets", func() (err error) {
		budgets, err = store.ListBudgets(ctx)
		return
	}))
	g.Go(section("assets", func() (err error) {
		assets, err = store.ListAssets(ctx)
		return
	}))
	g.Go(section("liabilities", func() (err error) {
		liabilities, err = store.ListLiabilities(ctx)
		return
	}))
	g.Go(section("investments", func() (err error) {
		investments, err = store.ListInvestments(ctx)
		return
	}))
	_ = g.Wait()

	response := dashboardResponse{
		TotalIncome:   core.TotalIncome(transactions),
		TotalExpenses: core.TotalExpenses(transactions),
		NetIncome:     core.NetIncome(transactions),
		ByCategory:    core.GroupByCategory(transactions),
		Trend:         core.MonthlySeries(transactions, trendMonths, now),
		Recent:        recent,
		NetWorth: netWorthResponse{
			Assets:         core.TotalAssets(assets),
			Liabilities:    core.TotalLiabilities(liabilities),
			NetWorth:       core.NetWorth(assets, liabilities),
			AssetCount:     len(assets),
			LiabilityCount: len(liabilities),
		},
		Investments: investmentSummary{
			Invested:    core.TotalInvested(investments),
			MarketValue: core.TotalMarketValue(investments),
			Gain:        core.TotalGain(investments),
			Count:       len(investments),
		},
		GeneratedAt: now,
	}
	response.Formatted = dashboardFormatted{
		TotalIncome:   core.FormatCurrency(response.TotalIncome, profile.Currency),
		TotalExpenses: core.FormatCurrency(response.TotalExpenses, profile.Currency),
		NetIncome:     core.FormatCurrency(response.NetIncome, profile.Currency),
		NetWorth:      core.FormatCurrency(response.NetWorth.NetWorth, profile.Currency),
		GeneratedAt:   core.FormatDate(core.DateOf(now), ""),
	}
	if response.Recent == nil {
		response.Recent = []core.Transaction{}
	}
	response.Budgets = make([]budgetWithProgress, 0, len(budgets))
	for _, b := range budgets {
		response.Budgets = append(response.Budgets, withProgress(b, transactions, now))
	}

	s.dashboardCache.Set(userID, response)
	writeJSON(w, http.StatusOK, response)
}
