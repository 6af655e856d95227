// Package worker maintains the JSON snapshot mirror from entity-change
// events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/snapshot"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// MirrorWorker applies change events to the snapshot store. Events carry
// identity only; the worker always re-reads the entity from the primary
// store, so out-of-order deliveries converge on current state.
type MirrorWorker struct {
	repo     *storage.Repository
	snapshot *snapshot.Store
}

func NewMirrorWorker(repo *storage.Repository, snap *snapshot.Store) *MirrorWorker {
	return &MirrorWorker{repo: repo, snapshot: snap}
}

// HandleChange processes one change event.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Applying change event",
		"collection", msg.Collection,
		"id", msg.ID,
		"op", msg.Op)

	if msg.Op == amqp.OpDelete {
		return w.applyDelete(msg)
	}
	return w.applyUpsert(ctx, msg)
}

func (w *MirrorWorker) applyDelete(msg *amqp.ChangeMessage) error {
	switch msg.Collection {
	case amqp.CollectionTransactions:
		return w.snapshot.DeleteTransaction(msg.UserID, msg.ID)
	case amqp.CollectionBudgets:
		return w.snapshot.DeleteBudget(msg.UserID, msg.ID)
	case amqp.CollectionAssets:
		return w.snapshot.DeleteAsset(msg.UserID, msg.ID)
	case amqp.CollectionLiabilities:
		return w.snapshot.DeleteLiability(msg.UserID, msg.ID)
	case amqp.CollectionInvestments:
		return w.snapshot.DeleteInvestment(msg.UserID, msg.ID)
	default:
		return fmt.Errorf("unknown collection %q", msg.Collection)
	}
}

func (w *MirrorWorker) applyUpsert(ctx context.Context, msg *amqp.ChangeMessage) error {
	store := w.repo.ForUser(msg.UserID)

	switch msg.Collection {
	case amqp.CollectionTransactions:
		t, err := store.GetTransaction(ctx, msg.ID)
		if err != nil {
			// Deleted since the event was published; the delete event
			// follows, nothing to mirror now.
			if errors.Is(err, storage.ErrNotFound) {
				return w.snapshot.DeleteTransaction(msg.UserID, msg.ID)
			}
			return fmt.Errorf("read transaction: %w", err)
		}
		return w.snapshot.UpsertTransaction(msg.UserID, t)
	case amqp.CollectionBudgets:
		b, err := store.GetBudget(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return w.snapshot.DeleteBudget(msg.UserID, msg.ID)
			}
			return fmt.Errorf("read budget: %w", err)
		}
		return w.snapshot.UpsertBudget(msg.UserID, b)
	case amqp.CollectionAssets:
		a, err := store.GetAsset(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return w.snapshot.DeleteAsset(msg.UserID, msg.ID)
			}
			return fmt.Errorf("read asset: %w", err)
		}
		return w.snapshot.UpsertAsset(msg.UserID, a)
	case amqp.CollectionLiabilities:
		l, err := store.GetLiability(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return w.snapshot.DeleteLiability(msg.UserID, msg.ID)
			}
			return fmt.Errorf("read liability: %w", err)
		}
		return w.snapshot.UpsertLiability(msg.UserID, l)
	case amqp.CollectionInvestments:
		i, err := store.GetInvestment(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return w.snapshot.DeleteInvestment(msg.UserID, msg.ID)
			}
			return fmt.Errorf("read investment: %w", err)
		}
		return w.snapshot.UpsertInvestment(msg.UserID, i)
	default:
		return fmt.Errorf("unknown collection %q", msg.Collection)
	}
}

// Reconcile rebuilds one account's mirror from the primary store. Run at
// worker startup to recover from missed events or downtime.
func (w *MirrorWorker) Reconcile(ctx context.Context, userID string) error {
	store := w.repo.ForUser(userID)

	transactions, err := store.ListTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := store.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	assets, err := store.ListAssets(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	liabilities, err := store.ListLiabilities(ctx)
	if err != nil {
		return fmt.Errorf("list liabilities: %w", err)
	}
	investments, err := store.ListInvestments(ctx)
	if err != nil {
		return fmt.Errorf("list investments: %w", err)
	}

	err = w.snapshot.Replace(userID, snapshot.UserData{
		Transactions: transactions,
		Budgets:      budgets,
		Assets:       assets,
		Liabilities:  liabilities,
		Investments:  investments,
	})
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot reconciled",
		"user_id", userID,
		"transactions", len(transactions),
		"budgets", len(budgets),
		"assets", len(assets),
		"liabilities", len(liabilities),
		"investments", len(investments))
	return nil
}

// ReconcileAll rebuilds the mirror for every account. One failed account
// does not stop the others; the first error is reported after the sweep.
func (w *MirrorWorker) ReconcileAll(ctx context.Context) error {
	ids, err := w.repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var firstErr error
	for _, id := range ids {
		if err := w.Reconcile(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Reconciliation failed", "user_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
