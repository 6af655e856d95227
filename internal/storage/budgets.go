package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

const budgetColumns = `id, user_id, name, category, amount_cents, period,
	start_date, end_date, created_at, updated_at`

func (s *UserStore) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, s.userID, b.Name, b.Category, b.Amount.Cents, string(b.Period),
		encodeDate(b.StartDate), encodeDate(b.EndDate),
		encodeTime(b.CreatedAt), encodeTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *UserStore) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanBudget(row.Scan)
}

func (s *UserStore) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE user_id = ?
		ORDER BY created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, category = ?, amount_cents = ?, period = ?,
			start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Category, b.Amount.Cents, string(b.Period),
		encodeDate(b.StartDate), encodeDate(b.EndDate), encodeTime(b.UpdatedAt),
		b.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteBudget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return mustAffect(res)
}

func scanBudget(scan func(...any) error) (core.Budget, error) {
	var (
		b       core.Budget
		period  string
		start   sql.NullString
		end     sql.NullString
		created string
		updated string
	)
	err := scan(&b.ID, &b.UserID, &b.Name, &b.Category, &b.Amount.Cents, &period,
		&start, &end, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, ErrNotFound
		}
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Period = core.RecurringPeriod(period)
	b.StartDate = decodeDate(start)
	b.EndDate = decodeDate(end)
	b.CreatedAt = decodeTime(created)
	b.UpdatedAt = decodeTime(updated)
	return b, nil
}
