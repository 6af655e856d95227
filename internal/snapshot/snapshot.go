// Package snapshot keeps a denormalized per-user mirror of the primary
// store as a JSON file. The worker maintains it from change events; read
// paths can serve from it when the primary store is unavailable.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
)

// UserData is one account's mirrored state.
type UserData struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	Assets       []core.Asset       `json:"assets"`
	Liabilities  []core.Liability   `json:"liabilities"`
	Investments  []core.Investment  `json:"investments"`
	Categories   []core.Category    `json:"categories"`
	Goals        []core.Goal        `json:"goals"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

type Store struct {
	mu    sync.Mutex
	path  string
	users map[string]*UserData
}

// Open loads the snapshot file, starting empty when it does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]*UserData)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, fmt.Errorf("decode snapshot file: %w", err)
	}
	return s, nil
}

// User returns a copy of one account's mirrored state.
func (s *Store) User(userID string) UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.users[userID]
	if d == nil {
		return UserData{}
	}
	return *d
}

// Replace swaps out an account's whole mirror, used by the startup
// reconcile pass.
func (s *Store) Replace(userID string, data UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data.UpdatedAt = time.Now()
	s.users[userID] = &data
	return s.persistLocked()
}

func (s *Store) UpsertTransaction(userID string, t core.Transaction) error {
	return s.mutate(userID, func(d *UserData) {
		d.Transactions = upsert(d.Transactions, t, func(x core.Transaction) string { return x.ID })
	})
}

func (s *Store) DeleteTransaction(userID, id string) error {
	return s.mutate(userID, func(d *UserData) {
		d.Transactions = remove(d.Transactions, id, func(x core.Transaction) string { return x.ID })
	})
}

func (s *Store) UpsertBudget(userID string, b core.Budget) error {
	return s.mutate(userID, func(d *UserData) {
		d.Budgets = upsert(d.Budgets, b, func(x core.Budget) string { return x.ID })
	})
}

func (s *Store) DeleteBudget(userID, id string) error {
	return s.mutate(userID, func(d *UserData) {
		d.Budgets = remove(d.Budgets, id, func(x core.Budget) string { return x.ID })
	})
}

func (s *Store) UpsertAsset(userID string, a core.Asset) error {
	return s.mutate(userID, func(d *UserData) {
		d.Assets = upsert(d.Assets, a, func(x core.Asset) string { return x.ID })
	})
}

func (s *Store) DeleteAsset(userID, id string) error {
	return s.mutate(userID, func(d *UserData) {
		d.Assets = remove(d.Assets, id, func(x core.Asset) string { return x.ID })
	})
}

func (s *Store) UpsertLiability(userID string, l core.Liability) error {
	return s.mutate(userID, func(d *UserData) {
		d.Liabilities = upsert(d.Liabilities, l, func(x core.Liability) string { return x.ID })
	})
}

func (s *Store) DeleteLiability(userID, id string) error {
	return s.mutate(userID, func(d *UserData) {
		d.Liabilities = remove(d.Liabilities, id, func(x core.Liability) string { return x.ID })
	})
}

func (s *Store) UpsertInvestment(userID string, i core.Investment) error {
	return s.mutate(userID, func(d *UserData) {
		d.Investments = upsert(d.Investments, i, func(x core.Investment) string { return x.ID })
	})
}

func (s *Store) DeleteInvestment(userID, id string) error {
	return s.mutate(userID, func(d *UserData) {
		d.Investments = remove(d.Investments, id, func(x core.Investment) string { return x.ID })
	})
}

func (s *Store) mutate(userID string, fn func(*UserData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.users[userID]
	if d == nil {
		d = &UserData{}
		s.users[userID] = d
	}
	fn(d)
	d.UpdatedAt = time.Now()
	return s.persistLocked()
}

// persistLocked writes via a temp file and rename so a crash mid-write
// never leaves a truncated snapshot.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

func upsert[T any](items []T, item T, id func(T) string) []T {
	key := id(item)
	for i := range items {
		if id(items[i]) == key {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func remove[T any](items []T, key string, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == key {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
