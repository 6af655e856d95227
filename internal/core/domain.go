package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   RecurringPeriod = "daily"
	Weekly  RecurringPeriod = "weekly"
	Monthly RecurringPeriod = "monthly"
	Yearly  RecurringPeriod = "yearly"
)

type (
	TransactionType string
	RecurringPeriod string

	// Money is an amount in integer cents. Amounts are stored positive;
	// the sign of a transaction is implied by its type.
	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record.
	Transaction struct {
		ID              string          `json:"id"`
		UserID          string          `json:"userId"`
		Amount          Money           `json:"amount"`
		Type            TransactionType `json:"type"`
		Category        string          `json:"category"`
		Description     string          `json:"description"`
		Date            Date            `json:"date"`
		IsRecurring     bool            `json:"isRecurring"`
		RecurringPeriod RecurringPeriod `json:"recurringPeriod,omitempty"`
		Tags            []string        `json:"tags,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	// Budget caps spending for one category over a period. Progress against
	// it is always computed, never stored.
	Budget struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Name      string          `json:"name"`
		Category  string          `json:"category"`
		Amount    Money           `json:"amount"`
		Period    RecurringPeriod `json:"period"`
		StartDate Date            `json:"startDate"`
		EndDate   Date            `json:"endDate"` // absent means open-ended
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	// Asset is a point-in-time value snapshot; no history is retained.
	Asset struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		Name         string    `json:"name"`
		Type         string    `json:"type"`
		Value        Money     `json:"value"`
		PurchaseDate Date      `json:"purchaseDate"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Liability struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		Name         string    `json:"name"`
		Type         string    `json:"type"`
		Amount       Money     `json:"amount"`
		InterestRate float64   `json:"interestRate,omitempty"`
		DueDate      Date      `json:"dueDate"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Investment is a holding of fractional shares. Gain/loss is derived,
	// never stored.
	Investment struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		Name          string          `json:"name"`
		Symbol        string          `json:"symbol"`
		Type          string          `json:"type"`
		Shares        decimal.Decimal `json:"shares"`
		PurchasePrice decimal.Decimal `json:"purchasePrice"`
		CurrentPrice  decimal.Decimal `json:"currentPrice"`
		PurchaseDate  Date            `json:"purchaseDate"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// Category is an auxiliary classification record. Relationships to
	// transactions and budgets are by name equality, not by key.
	Category struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	Goal struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Name      string    `json:"name"`
		Target    Money     `json:"target"`
		Saved     Money     `json:"saved"`
		Deadline  Date      `json:"deadline"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// UserProfile is the account record the auth layer manages.
	UserProfile struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		DisplayName string    `json:"displayName"`
		PhotoURL    string    `json:"photoURL,omitempty"`
		Currency    string    `json:"currency"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
)

// Gain returns shares x (current - purchase).
func (i Investment) Gain() decimal.Decimal {
	return i.Shares.Mul(i.CurrentPrice.Sub(i.PurchasePrice))
}

// MarketValue returns shares x current price.
func (i Investment) MarketValue() decimal.Decimal {
	return i.Shares.Mul(i.CurrentPrice)
}

// CostBasis returns shares x purchase price.
func (i Investment) CostBasis() decimal.Decimal {
	return i.Shares.Mul(i.PurchasePrice)
}

func (p RecurringPeriod) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ValidBudgetPeriod reports whether p is allowed on a budget. Budgets do
// not repeat daily.
func (p RecurringPeriod) ValidBudgetPeriod() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Date.Usable() {
		return ErrInvalidDate
	}
	if t.IsRecurring && !t.RecurringPeriod.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !b.Period.ValidBudgetPeriod() {
		return ErrInvalidPeriod
	}
	if !b.StartDate.Usable() {
		return ErrInvalidDate
	}
	if b.EndDate.Usable() && b.EndDate.Before(b.StartDate.Time) {
		return errors.New("end date before start date")
	}
	return nil
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (l Liability) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if l.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(i.Symbol) == "" {
		return errors.New("empty symbol")
	}
	if !i.Shares.IsPositive() {
		return errors.New("shares must be positive")
	}
	if !i.PurchasePrice.IsPositive() || !i.CurrentPrice.IsPositive() {
		return errors.New("prices must be positive")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.Saved.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
