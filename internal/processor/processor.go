// Package processor reacts to ledger events and raises budget alerts.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/brisk/internal/events"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

// Store is the ledger read side the processor needs.
type Store interface {
	GetBudgetForCategory(ctx context.Context, userID, categoryID uuid.UUID, month time.Time) (*finance.Budget, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f store.TransactionFilter) ([]finance.Transaction, error)
}

// Alerter receives budgets that reached their amount.
type Alerter interface {
	BudgetExceeded(userID uuid.UUID, st finance.BudgetStatus)
}

// Processor recomputes a budget's spending whenever an expense lands in its
// category and month. Each budget alerts once per crossing; dropping back
// under the amount re-arms it.
type Processor struct {
	store   Store
	alerter Alerter
	loc     *time.Location
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	exceeded map[uuid.UUID]bool // keyed by budget id
}

// New builds a processor. Budget months are resolved in loc, the same zone
// the API uses for ?month; nil means UTC.
func New(s Store, a Alerter, loc *time.Location, logger *slog.Logger) *Processor {
	if loc == nil {
		loc = time.UTC
	}
	return &Processor{
		store:    s,
		alerter:  a,
		loc:      loc,
		logger:   logger,
		timeout:  10 * time.Second,
		exceeded: make(map[uuid.UUID]bool),
	}
}

// HandleTransactionEvent is the NATS handler for brisk.transaction.>.
func (p *Processor) HandleTransactionEvent(subject string, data []byte) {
	var evt events.TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transaction event", "subject", subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// Deletes and moves out of a budget re-arm it.
	if evt.Previous != nil {
		p.Check(ctx, evt.UserID, *evt.Previous)
	}
	p.Check(ctx, evt.UserID, evt.Transaction)
}

// Check evaluates the budget covering tx, if any, and alerts on a crossing.
func (p *Processor) Check(ctx context.Context, userID uuid.UUID, tx finance.Transaction) {
	if tx.Type != finance.Expense || tx.CategoryID == nil {
		return
	}

	start, end := finance.MonthRange(tx.Date.In(p.loc))
	budget, err := p.store.GetBudgetForCategory(ctx, userID, *tx.CategoryID, start)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Error("failed to load budget", "user_id", userID, "category_id", *tx.CategoryID, "error", err)
		return
	}

	txs, err := p.store.ListTransactions(ctx, userID, store.TransactionFilter{
		From:       start,
		To:         end,
		Type:       finance.Expense,
		CategoryID: budget.CategoryID,
	})
	if err != nil {
		p.logger.Error("failed to load budget transactions", "budget_id", budget.ID, "error", err)
		return
	}

	st := finance.Status(*budget, txs)

	p.mu.Lock()
	already := p.exceeded[budget.ID]
	if st.Level == finance.BudgetExceeded {
		p.exceeded[budget.ID] = true
	} else {
		delete(p.exceeded, budget.ID)
	}
	p.mu.Unlock()

	if st.Level != finance.BudgetExceeded || already {
		return
	}

	p.logger.Info("budget exceeded",
		"user_id", userID,
		"budget_id", budget.ID,
		"category", budget.CategoryName,
		"spent", st.Spent.String(),
		"amount", budget.Amount.String(),
	)
	if p.alerter != nil {
		p.alerter.BudgetExceeded(userID, st)
	}
}
