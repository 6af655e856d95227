// Package services orchestrates entity operations across the primary
// store and the change-event queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// ErrValidation wraps every entity validation failure so callers can
// map the whole class without enumerating each rule.
var ErrValidation = errors.New("validation failed")

// ChangePublisher is satisfied by the AMQP client. Nil publishers are
// allowed; the service then runs store-only.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// FinanceService writes entities to the primary store and announces each
// change on the queue. The store write is authoritative: a publish failure
// is logged, never returned to the caller.
type FinanceService struct {
	repo      *storage.Repository
	publisher ChangePublisher
}

func NewFinanceService(repo *storage.Repository, publisher ChangePublisher) *FinanceService {
	return &FinanceService{repo: repo, publisher: publisher}
}

func (s *FinanceService) Repo() *storage.Repository { return s.repo }

func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := time.Now()
	t.ID = uuid.NewString()
	t.UserID = userID
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.repo.ForUser(userID).CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.notify(ctx, amqp.CollectionTransactions, t.ID, userID, amqp.OpUpsert)
	return t, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	t.UserID = userID
	t.UpdatedAt = time.Now()

	if err := s.repo.ForUser(userID).UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.notify(ctx, amqp.CollectionTransactions, t.ID, userID, amqp.OpUpsert)
	return t, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.repo.ForUser(userID).DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.notify(ctx, amqp.CollectionTransactions, id, userID, amqp.OpDelete)
	return nil
}

func (s *FinanceService) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := time.Now()
	b.ID = uuid.NewString()
	b.UserID = userID
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.repo.ForUser(userID).CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.notify(ctx, amqp.CollectionBudgets, b.ID, userID, amqp.OpUpsert)
	return b, nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	b.UserID = userID
	b.UpdatedAt = time.Now()

	if err := s.repo.ForUser(userID).UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	s.notify(ctx, amqp.CollectionBudgets, b.ID, userID, amqp.OpUpsert)
	return b, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := s.repo.ForUser(userID).DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.notify(ctx, amqp.CollectionBudgets, id, userID, amqp.OpDelete)
	return nil
}

func (s *FinanceService) CreateAsset(ctx context.Context, userID string, a core.Asset) (core.Asset, error) {
	if err := a.Validate(); err != nil {
		return core.Asset{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := time.Now()
	a.ID = uuid.NewString()
	a.UserID = userID
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.repo.ForUser(userID).CreateAsset(ctx, a); err != nil {
		return core.Asset{}, fmt.Errorf("create asset: %w", err)
	}
	s.notify(ctx, amqp.CollectionAssets, a.ID, userID, amqp.OpUpsert)
	return a, nil
}

func (s *FinanceService) UpdateAsset(ctx context.Context, userID string, a core.Asset) (core.Asset, error) {
	if err := a.Validate(); err != nil {
		return core.Asset{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	a.UserID = userID
	a.UpdatedAt = time.Now()

	if err := s.repo.ForUser(userID).UpdateAsset(ctx, a); err != nil {
		return core.Asset{}, fmt.Errorf("update asset: %w", err)
	}
	s.notify(ctx, amqp.CollectionAssets, a.ID, userID, amqp.OpUpsert)
	return a, nil
}

func (s *FinanceService) DeleteAsset(ctx context.Context, userID, id string) error {
	if err := s.repo.ForUser(userID).DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	s.notify(ctx, amqp.CollectionAssets, id, userID, amqp.OpDelete)
	return nil
}

func (s *FinanceService) CreateLiability(ctx context.Context, userID string, l core.Liability) (core.Liability, error) {
	if err := l.Validate(); err != nil {
		return core.Liability{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := time.Now()
	l.ID = uuid.NewString()
	l.UserID = userID
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.repo.ForUser(userID).CreateLiability(ctx, l); err != nil {
		return core.Liability{}, fmt.Errorf("create liability: %w", err)
	}
	s.notify(ctx, amqp.CollectionLiabilities, l.ID, userID, amqp.OpUpsert)
	return l, nil
}

func (s *FinanceService) UpdateLiability(ctx context.Context, userID string, l core.Liability) (core.Liability, error) {
	if err := l.Validate(); err != nil {
		return core.Liability{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	l.UserID = userID
	l.UpdatedAt = time.Now()

	if err := s.repo.ForUser(userID).UpdateLiability(ctx, l); err != nil {
		return core.Liability{}, fmt.Errorf("update liability: %w", err)
	}
	s.notify(ctx, amqp.CollectionLiabilities, l.ID, userID, amqp.OpUpsert)
	return l, nil
}

func (s *FinanceService) DeleteLiability(ctx context.Context, userID, id string) error {
	if err := s.repo.ForUser(userID).DeleteLiability(ctx, id); err != nil {
		return fmt.Errorf("delete liability: %w", err)
	}
	s.notify(ctx, amqp.CollectionLiabilities, id, userID, amqp.OpDelete)
	return nil
}

func (s *FinanceService) CreateInvestment(ctx context.Context, userID string, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := time.Now()
	i.ID = uuid.NewString()
	i.UserID = userID
	i.CreatedAt = now
	i.UpdatedAt = now

	if err := s.repo.ForUser(userID).CreateInvestment(ctx, i); err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	s.notify(ctx, amqp.CollectionInvestments, i.ID, userID, amqp.OpUpsert)
	return i, nil
}

func (s *FinanceService) UpdateInvestment(ctx context.Context, userID string, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	i.UserID = userID
	i.UpdatedAt = time.Now()

	if err := s.repo.ForUser(userID).UpdateInvestment(ctx, i); err != nil {
		return core.Investment{}, fmt.Errorf("update investment: %w", err)
	}
	s.notify(ctx, amqp.CollectionInvestments, i.ID, userID, amqp.OpUpsert)
	return i, nil
}

func (s *FinanceService) DeleteInvestment(ctx context.Context, userID, id string) error {
	if err := s.repo.ForUser(userID).DeleteInvestment(ctx, id); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	s.notify(ctx, amqp.CollectionInvestments, id, userID, amqp.OpDelete)
	return nil
}

func (s *FinanceService) notify(ctx context.Context, collection, id, userID string, op amqp.Operation) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewChangeMessage(collection, id, userID, op)
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"collection", collection,
			"id", id,
			"op", op,
			"error", err)
	}
}
