package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

const investmentColumns = `id, user_id, name, symbol, type, shares,
	purchase_price, current_price, purchase_date, created_at, updated_at`

func (s *UserStore) CreateInvestment(ctx context.Context, i core.Investment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investments (`+investmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, s.userID, i.Name, i.Symbol, i.Type,
		i.Shares.String(), i.PurchasePrice.String(), i.CurrentPrice.String(),
		encodeDate(i.PurchaseDate), encodeTime(i.CreatedAt), encodeTime(i.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

func (s *UserStore) GetInvestment(ctx context.Context, id string) (core.Investment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+investmentColumns+`
		FROM investments WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanInvestment(row.Scan)
}

func (s *UserStore) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+investmentColumns+`
		FROM investments WHERE user_id = ?
		ORDER BY created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		i, err := scanInvestment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateInvestment(ctx context.Context, i core.Investment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE investments
		SET name = ?, symbol = ?, type = ?, shares = ?, purchase_price = ?,
			current_price = ?, purchase_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		i.Name, i.Symbol, i.Type, i.Shares.String(), i.PurchasePrice.String(),
		i.CurrentPrice.String(), encodeDate(i.PurchaseDate), encodeTime(i.UpdatedAt),
		i.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteInvestment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM investments WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return mustAffect(res)
}

// Prices and share counts are stored as decimal text, never floats, so
// values round-trip exactly.
func scanInvestment(scan func(...any) error) (core.Investment, error) {
	var (
		i        core.Investment
		shares   string
		buy      string
		current  string
		purchase sql.NullString
		created  string
		updated  string
	)
	err := scan(&i.ID, &i.UserID, &i.Name, &i.Symbol, &i.Type,
		&shares, &buy, &current, &purchase, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Investment{}, ErrNotFound
		}
		return core.Investment{}, fmt.Errorf("scan investment: %w", err)
	}

	if i.Shares, err = decimal.NewFromString(shares); err != nil {
		return core.Investment{}, fmt.Errorf("decode shares: %w", err)
	}
	if i.PurchasePrice, err = decimal.NewFromString(buy); err != nil {
		return core.Investment{}, fmt.Errorf("decode purchase price: %w", err)
	}
	if i.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return core.Investment{}, fmt.Errorf("decode current price: %w", err)
	}
	i.PurchaseDate = decodeDate(purchase)
	i.CreatedAt = decodeTime(created)
	i.UpdatedAt = decodeTime(updated)
	return i, nil
}
