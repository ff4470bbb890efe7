package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// RecurringProcessor materializes concrete transactions from recurring
// templates. Each template's occurrences and advanced cursor are
// persisted atomically, so re-running the processor with no time
// elapsed is a no-op: the stored cursor is what gates the next run.
type RecurringProcessor struct {
	ledger RecurrenceLedger

	// Serializes processing per template id. Concurrent ProcessDue calls
	// against the same template would otherwise double-materialize.
	mu sync.Mutex
}

// NewRecurringProcessor creates a processor over a recurrence ledger.
func NewRecurringProcessor(ledger RecurrenceLedger) *RecurringProcessor {
	return &RecurringProcessor{ledger: ledger}
}

// ProcessDue materializes every occurrence due at or before now across
// all active templates and returns how many transactions were created.
// A failing template is logged and skipped; the rest still process.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	templates, err := p.ledger.ListActiveRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list active recurring templates: %v", core.ErrLedgerFetch, err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", today.String())

	created := 0
	for _, tmpl := range templates {
		txns, nextDue, active, err := p.materialize(ctx, tmpl, today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize template",
				"template_id", tmpl.ID, "error", err)
			continue
		}
		if len(txns) == 0 && active == tmpl.IsActive {
			continue
		}

		if err := p.ledger.ApplyRecurrence(ctx, tmpl.ID, txns, nextDue, active); err != nil {
			slog.ErrorContext(ctx, "Failed to persist recurrence",
				"template_id", tmpl.ID, "occurrences", len(txns), "error", err)
			continue
		}

		created += len(txns)
		if len(txns) > 0 {
			slog.InfoContext(ctx, "Materialized recurring transactions",
				"template_id", tmpl.ID,
				"occurrences", len(txns),
				"next_due", nextDue.String(),
				"active", active)
		}
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"created", created, "total_checked", len(templates))
	return created, nil
}

// materialize computes the catch-up sequence for one template: one
// transaction per occurrence from the cursor up to and including today,
// never skipping missed occurrences.
func (p *RecurringProcessor) materialize(ctx context.Context, tmpl core.RecurringTemplate, today core.Date) ([]core.Transaction, core.Date, bool, error) {
	stepper, err := GetFrequencyStepper(tmpl.Frequency)
	if err != nil {
		return nil, core.Date{}, false, err
	}

	next := tmpl.NextDueDate
	if next.IsZero() {
		next = tmpl.StartDate
	}
	active := tmpl.IsActive

	var txns []core.Transaction
	for !next.After(today.Time) {
		if !tmpl.EndDate.IsZero() && next.After(tmpl.EndDate.Time) {
			active = false
			break
		}

		txns = append(txns, core.Transaction{
			ID:          uuid.NewString(),
			AccountID:   tmpl.AccountID,
			CategoryID:  tmpl.CategoryID,
			AmountCents: tmpl.AmountCents,
			Type:        tmpl.Type,
			Description: tmpl.Description,
			Date:        next,
		})

		advanced := stepper.Next(next, tmpl.StartDate)
		if !advanced.After(next.Time) {
			// Defensive: a stepper that fails to move forward would
			// otherwise loop here forever.
			slog.ErrorContext(ctx, "Template advance did not progress, deactivating",
				"template_id", tmpl.ID,
				"frequency", string(tmpl.Frequency),
				"next_due", next.String())
			active = false
			break
		}
		next = advanced
	}

	if active && !tmpl.EndDate.IsZero() && next.After(tmpl.EndDate.Time) {
		active = false
	}

	return txns, next, active, nil
}
