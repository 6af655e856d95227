package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

// Categories and goals are auxiliary records. Categories relate to
// transactions and budgets by name only, so deleting one never cascades.

func (s *UserStore) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, s.userID, c.Name, string(c.Type), encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *UserStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, created_at, updated_at
		FROM categories WHERE user_id = ?
		ORDER BY name`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c       core.Category
			ctype   string
			created string
			updated string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &ctype, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(ctype)
		c.CreatedAt = decodeTime(created)
		c.UpdatedAt = decodeTime(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *UserStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, s.userID, g.Name, g.Target.Cents, g.Saved.Cents,
		encodeDate(g.Deadline), encodeTime(g.CreatedAt), encodeTime(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *UserStore) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at
		FROM goals WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanGoal(row.Scan)
}

func (s *UserStore) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at
		FROM goals WHERE user_id = ?
		ORDER BY created_at`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_cents = ?, saved_cents = ?, deadline = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.Target.Cents, g.Saved.Cents, encodeDate(g.Deadline), encodeTime(g.UpdatedAt),
		g.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM goals WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return mustAffect(res)
}

func scanGoal(scan func(...any) error) (core.Goal, error) {
	var (
		g        core.Goal
		deadline sql.NullString
		created  string
		updated  string
	)
	err := scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Saved.Cents,
		&deadline, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	g.Deadline = decodeDate(deadline)
	g.CreatedAt = decodeTime(created)
	g.UpdatedAt = decodeTime(updated)
	return g, nil
}
