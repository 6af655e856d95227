package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/core"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// RecurringProcessor materializes concrete transactions from recurring
// templates once their period elapses.
type RecurringProcessor struct {
	repo    *storage.Repository
	finance *FinanceService
}

func NewRecurringProcessor(repo *storage.Repository, finance *FinanceService) *RecurringProcessor {
	return &RecurringProcessor{repo: repo, finance: finance}
}

// ProcessDue walks every recurring template and creates an occurrence for
// each one that is due. A failure on one template never blocks the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil || p.finance == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	entries, err := p.repo.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total", len(entries),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, entry := range entries {
		template := entry.Transaction

		checker, err := GetDuenessChecker(template.RecurringPeriod)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown period",
				"id", template.ID,
				"period", template.RecurringPeriod)
			continue
		}
		if !checker.IsDue(entry.LastRun, now, template.Date) {
			continue
		}

		// The occurrence is a plain transaction dated now; only the
		// template keeps the recurring flag.
		occurrence := core.Transaction{
			Amount:      template.Amount,
			Type:        template.Type,
			Category:    template.Category,
			Description: template.Description,
			Date:        core.DateOf(now),
			Tags:        template.Tags,
		}
		if _, err := p.finance.CreateTransaction(ctx, template.UserID, occurrence); err != nil {
			slog.ErrorContext(ctx, "Failed to create occurrence from template",
				"template_id", template.ID,
				"error", err)
			continue
		}

		if err := p.repo.MarkRecurringRun(ctx, template.ID, now); err != nil {
			// Occurrence was created; log and move on.
			slog.ErrorContext(ctx, "Failed to record template run",
				"template_id", template.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created occurrence from recurring template",
			"template_id", template.ID,
			"description", template.Description,
			"amount_cents", template.Amount.Cents,
			"period", template.RecurringPeriod)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(entries))

	return processed, nil
}
