package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

func testTx(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		Category:    "Food",
		Description: "t",
		Date:        core.NewDate(2023, 4, 1),
	}
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.User("u1"); len(got.Transactions) != 0 {
		t.Fatalf("fresh store not empty: %+v", got)
	}
}

func TestUpsertAndDelete(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "snap.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.UpsertTransaction("u1", testTx("t1", 100)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertTransaction("u1", testTx("t2", 200)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Same id replaces, never duplicates.
	if err := s.UpsertTransaction("u1", testTx("t1", 999)); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	got := s.User("u1")
	if len(got.Transactions) != 2 {
		t.Fatalf("len = %d, want 2", len(got.Transactions))
	}
	if got.Transactions[0].Amount.Cents != 999 {
		t.Fatalf("replaced amount = %d, want 999", got.Transactions[0].Amount.Cents)
	}

	if err := s.DeleteTransaction("u1", "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.User("u1"); len(got.Transactions) != 1 || got.Transactions[0].ID != "t2" {
		t.Fatalf("after delete: %+v", got.Transactions)
	}

	// Deleting an unknown id is a no-op.
	if err := s.DeleteTransaction("u1", "nope"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "snap.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertTransaction("u1", testTx("t1", 100)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := s.User("u2"); len(got.Transactions) != 0 {
		t.Fatalf("u2 sees u1 data: %+v", got)
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertTransaction("u1", testTx("t1", 100)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertBudget("u1", core.Budget{ID: "b1", Name: "Groceries", Category: "Food", Amount: core.Money{Cents: 50000}, Period: core.Monthly, StartDate: core.NewDate(2023, 4, 1)}); err != nil {
		t.Fatalf("upsert budget: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reloaded.User("u1")
	if len(got.Transactions) != 1 || got.Transactions[0].Amount.Cents != 100 {
		t.Fatalf("transactions lost on reload: %+v", got.Transactions)
	}
	if len(got.Budgets) != 1 || got.Budgets[0].Name != "Groceries" {
		t.Fatalf("budgets lost on reload: %+v", got.Budgets)
	}
}

func TestReplace(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "snap.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertTransaction("u1", testTx("stale", 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Replace("u1", UserData{Transactions: []core.Transaction{testTx("fresh", 2)}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got := s.User("u1")
	if len(got.Transactions) != 1 || got.Transactions[0].ID != "fresh" {
		t.Fatalf("replace did not swap state: %+v", got.Transactions)
	}
}
