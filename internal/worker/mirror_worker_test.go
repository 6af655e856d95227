package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/snapshot"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.Repository, *snapshot.Store) {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	snap, err := snapshot.Open(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}

	err = repo.CreateUser(context.Background(), storage.UserRecord{
		Profile:      core.UserProfile{ID: "u1", Email: "a@example.com", Currency: "USD"},
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewMirrorWorker(repo, snap), repo, snap
}

func workerTx(id string) core.Transaction {
	now := time.Now().Truncate(time.Second)
	return core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: 1500},
		Type:        core.Expense,
		Category:    "Food",
		Description: "groceries",
		Date:        core.NewDate(2023, 4, 1),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestHandleChangeUpsert(t *testing.T) {
	w, repo, snap := newTestWorker(t)
	ctx := context.Background()

	if err := repo.ForUser("u1").CreateTransaction(ctx, workerTx("t1")); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.CollectionTransactions, "t1", "u1", amqp.OpUpsert)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := snap.User("u1")
	if len(got.Transactions) != 1 || got.Transactions[0].ID != "t1" {
		t.Fatalf("mirror = %+v", got.Transactions)
	}
}

func TestHandleChangeDelete(t *testing.T) {
	w, repo, snap := newTestWorker(t)
	ctx := context.Background()

	if err := repo.ForUser("u1").CreateTransaction(ctx, workerTx("t1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(amqp.CollectionTransactions, "t1", "u1", amqp.OpUpsert)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := w.HandleChange(ctx, amqp.NewChangeMessage(amqp.CollectionTransactions, "t1", "u1", amqp.OpDelete)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := snap.User("u1"); len(got.Transactions) != 0 {
		t.Fatalf("mirror after delete = %+v", got.Transactions)
	}
}

func TestUpsertForVanishedRecordClearsMirror(t *testing.T) {
	w, _, snap := newTestWorker(t)
	ctx := context.Background()

	// Mirror holds a record the primary store no longer has. A stale
	// upsert event must clear it rather than fail.
	if err := snap.UpsertTransaction("u1", workerTx("ghost")); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}
	msg := amqp.NewChangeMessage(amqp.CollectionTransactions, "ghost", "u1", amqp.OpUpsert)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := snap.User("u1"); len(got.Transactions) != 0 {
		t.Fatalf("ghost record not cleared: %+v", got.Transactions)
	}
}

func TestHandleChangeAllCollections(t *testing.T) {
	w, repo, snap := newTestWorker(t)
	ctx := context.Background()
	store := repo.ForUser("u1")
	now := time.Now().Truncate(time.Second)

	if err := store.CreateBudget(ctx, core.Budget{ID: "b1", Name: "Groceries", Category: "Food", Amount: core.Money{Cents: 50000}, Period: core.Monthly, StartDate: core.NewDate(2023, 4, 1), CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	if err := store.CreateAsset(ctx, core.Asset{ID: "a1", Name: "Savings", Value: core.Money{Cents: 1000}, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	if err := store.CreateLiability(ctx, core.Liability{ID: "l1", Name: "Card", Amount: core.Money{Cents: 500}, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed liability: %v", err)
	}

	for _, tc := range []struct{ collection, id string }{
		{amqp.CollectionBudgets, "b1"},
		{amqp.CollectionAssets, "a1"},
		{amqp.CollectionLiabilities, "l1"},
	} {
		msg := amqp.NewChangeMessage(tc.collection, tc.id, "u1", amqp.OpUpsert)
		if err := w.HandleChange(ctx, msg); err != nil {
			t.Fatalf("handle %s: %v", tc.collection, err)
		}
	}

	got := snap.User("u1")
	if len(got.Budgets) != 1 || len(got.Assets) != 1 || len(got.Liabilities) != 1 {
		t.Fatalf("mirror = %+v", got)
	}
}

func TestHandleChangeUnknownCollection(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := &amqp.ChangeMessage{Collection: "widgets", ID: "x", UserID: "u1", Op: amqp.OpUpsert}
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Fatal("unknown collection must error")
	}
}

func TestReconcile(t *testing.T) {
	w, repo, snap := newTestWorker(t)
	ctx := context.Background()
	store := repo.ForUser("u1")

	if err := store.CreateTransaction(ctx, workerTx("t1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.CreateTransaction(ctx, workerTx("t2")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Mirror starts with stale content.
	if err := snap.UpsertTransaction("u1", workerTx("stale")); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	if err := w.Reconcile(ctx, "u1"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got := snap.User("u1")
	if len(got.Transactions) != 2 {
		t.Fatalf("len = %d, want 2", len(got.Transactions))
	}
	for _, tx := range got.Transactions {
		if tx.ID == "stale" {
			t.Fatal("stale record survived reconcile")
		}
	}
}
