package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

const transactionColumns = `id, user_id, amount_cents, type, category, description, date,
	is_recurring, recurring_period, tags, created_at, updated_at`

func (s *UserStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, s.userID, t.Amount.Cents, string(t.Type), t.Category, t.Description,
		encodeDate(t.Date), t.IsRecurring, nullString(string(t.RecurringPeriod)),
		tags, encodeTime(t.CreatedAt), encodeTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (s *UserStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND user_id = ?`, id, s.userID)
	return scanTransaction(row)
}

// TransactionFilter narrows ListTransactions. Zero-valued fields do not
// constrain the result.
type TransactionFilter struct {
	From     core.Date
	To       core.Date
	Category string
	Type     core.TransactionType
}

// ListTransactions returns the account's transactions newest first,
// restricted by any filter fields that are set.
func (s *UserStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = ?`
	args := []any{s.userID}

	// datetime() normalizes stored offsets to UTC, so rows written with a
	// Z suffix and bounds in local time compare as instants. Rows whose
	// date is NULL or the invalid sentinel never match a range.
	if filter.From.Usable() {
		query += ` AND datetime(date) >= datetime(?)`
		args = append(args, filter.From.Format(time.RFC3339))
	}
	if filter.To.Usable() {
		// Inclusive of the whole end day regardless of time of day.
		query += ` AND datetime(date) < datetime(?)`
		args = append(args, filter.To.AddDate(0, 0, 1).Format(time.RFC3339))
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}

	query += ` ORDER BY date DESC, created_at DESC`
	return s.queryTransactions(ctx, query, args...)
}

// RecentTransactions returns the newest transactions up to limit, for the
// dashboard's recent-activity panel.
func (s *UserStore) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, s.userID, limit)
}

func (s *UserStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, type = ?, category = ?, description = ?, date = ?,
			is_recurring = ?, recurring_period = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Amount.Cents, string(t.Type), t.Category, t.Description, encodeDate(t.Date),
		t.IsRecurring, nullString(string(t.RecurringPeriod)), tags, encodeTime(t.UpdatedAt),
		t.ID, s.userID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return mustAffect(res)
}

// RecurringEntry pairs a recurring template with the last time the worker
// materialized an occurrence from it. A zero LastRun means never.
type RecurringEntry struct {
	Transaction core.Transaction
	LastRun     time.Time
}

// ListRecurring returns every recurring template across all accounts. Only
// the materialization worker calls this; request handlers stay user-scoped.
func (r *Repository) ListRecurring(ctx context.Context) ([]RecurringEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`, last_run
		FROM transactions WHERE is_recurring = 1`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var entries []RecurringEntry
	for rows.Next() {
		var lastRun sql.NullString
		t, err := scanTransactionFields(rows.Scan, &lastRun)
		if err != nil {
			return nil, err
		}
		entry := RecurringEntry{Transaction: t}
		if lastRun.Valid {
			entry.LastRun = decodeTime(lastRun.String)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkRecurringRun records when a template last produced an occurrence.
func (r *Repository) MarkRecurringRun(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET last_run = ? WHERE id = ? AND is_recurring = 1`,
		encodeTime(at), id)
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	return mustAffect(res)
}

func (s *UserStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransactionFields(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	t, err := scanTransactionFields(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return t, err
}

func scanTransactionFields(scan func(...any) error, extra ...any) (core.Transaction, error) {
	var (
		t       core.Transaction
		txType  string
		date    sql.NullString
		period  sql.NullString
		tags    sql.NullString
		created string
		updated string
	)
	dest := []any{&t.ID, &t.UserID, &t.Amount.Cents, &txType, &t.Category, &t.Description,
		&date, &t.IsRecurring, &period, &tags, &created, &updated}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(txType)
	t.Date = decodeDate(date)
	t.RecurringPeriod = core.RecurringPeriod(period.String)
	t.CreatedAt = decodeTime(created)
	t.UpdatedAt = decodeTime(updated)
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return t, nil
}

func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mustAffect maps a zero-row update or delete to ErrNotFound so an id from
// another account is indistinguishable from a missing one.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
