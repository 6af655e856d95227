package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

const assetColumns = `id, user_id, name, type, value_cents, purchase_date, created_at, updated_at`

func (s *UserStore) CreateAsset(ctx context.Context, a core.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, s.userID, a.Name, a.Type, a.Value.Cents,
		encodeDate(a.PurchaseDate), encodeTime(a.CreatedAt), encodeTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *UserStore) GetAsset(ctx context.Context, id string) (core.Asset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanAsset(row.Scan)
}

func (s *UserStore) ListAssets(ctx context.Context) ([]core.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets WHERE user_id = ?
		ORDER BY created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateAsset(ctx context.Context, a core.Asset) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET name = ?, type = ?, value_cents = ?, purchase_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Value.Cents, encodeDate(a.PurchaseDate), encodeTime(a.UpdatedAt),
		a.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM assets WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return mustAffect(res)
}

const liabilityColumns = `id, user_id, name, type, amount_cents, interest_rate, due_date, created_at, updated_at`

func (s *UserStore) CreateLiability(ctx context.Context, l core.Liability) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO liabilities (`+liabilityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, s.userID, l.Name, l.Type, l.Amount.Cents, l.InterestRate,
		encodeDate(l.DueDate), encodeTime(l.CreatedAt), encodeTime(l.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert liability: %w", err)
	}
	return nil
}

func (s *UserStore) GetLiability(ctx context.Context, id string) (core.Liability, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+liabilityColumns+`
		FROM liabilities WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanLiability(row.Scan)
}

func (s *UserStore) ListLiabilities(ctx context.Context) ([]core.Liability, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+liabilityColumns+`
		FROM liabilities WHERE user_id = ?
		ORDER BY created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query liabilities: %w", err)
	}
	defer rows.Close()

	var out []core.Liability
	for rows.Next() {
		l, err := scanLiability(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateLiability(ctx context.Context, l core.Liability) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE liabilities
		SET name = ?, type = ?, amount_cents = ?, interest_rate = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		l.Name, l.Type, l.Amount.Cents, l.InterestRate, encodeDate(l.DueDate),
		encodeTime(l.UpdatedAt), l.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update liability: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteLiability(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM liabilities WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete liability: %w", err)
	}
	return mustAffect(res)
}

func scanAsset(scan func(...any) error) (core.Asset, error) {
	var (
		a        core.Asset
		purchase sql.NullString
		created  string
		updated  string
	)
	err := scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Value.Cents,
		&purchase, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Asset{}, ErrNotFound
		}
		return core.Asset{}, fmt.Errorf("scan asset: %w", err)
	}
	a.PurchaseDate = decodeDate(purchase)
	a.CreatedAt = decodeTime(created)
	a.UpdatedAt = decodeTime(updated)
	return a, nil
}

func scanLiability(scan func(...any) error) (core.Liability, error) {
	var (
		l       core.Liability
		due     sql.NullString
		created string
		updated string
	)
	err := scan(&l.ID, &l.UserID, &l.Name, &l.Type, &l.Amount.Cents, &l.InterestRate,
		&due, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Liability{}, ErrNotFound
		}
		return core.Liability{}, fmt.Errorf("scan liability: %w", err)
	}
	l.DueDate = decodeDate(due)
	l.CreatedAt = decodeTime(created)
	l.UpdatedAt = decodeTime(updated)
	return l, nil
}
