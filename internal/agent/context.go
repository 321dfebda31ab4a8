package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

// Source is the read side of the ledger the snapshot is built from.
type Source interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*finance.Profile, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]finance.Account, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]finance.Category, error)
	ListBudgets(ctx context.Context, userID uuid.UUID, month time.Time) ([]finance.Budget, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f store.TransactionFilter) ([]finance.Transaction, error)
}

type AccountView struct {
	Name     string           `json:"name"`
	Currency finance.Currency `json:"currency"`
	Balance  string           `json:"balance"`
}

type BudgetView struct {
	Category string           `json:"category"`
	Amount   string           `json:"amount"`
	Currency finance.Currency `json:"currency"`
	Spent    string           `json:"spent"`
	Progress string           `json:"progress"`
	Level    string           `json:"level"`
}

// FinancialContext is the snapshot sent alongside the conversation.
// Raw transactions are summarized per currency rather than listed.
type FinancialContext struct {
	UserID           uuid.UUID                                    `json:"user_id"`
	FullName         string                                       `json:"full_name"`
	Accounts         []AccountView                                `json:"accounts"`
	Categories       []string                                     `json:"categories"`
	Budgets          []BudgetView                                 `json:"budgets"`
	FinancialSummary map[finance.Currency]finance.CurrencySummary `json:"financial_summary"`
	CurrentDate      time.Time                                    `json:"current_date"`
}

// BuildContext loads the user's ledger for the month containing now,
// fetching every part concurrently.
func BuildContext(ctx context.Context, src Source, userID uuid.UUID, now time.Time) (*FinancialContext, error) {
	start, end := finance.MonthRange(now)

	var (
		profile    *finance.Profile
		accounts   []finance.Account
		categories []finance.Category
		budgets    []finance.Budget
		txs        []finance.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := src.GetProfile(gctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() (err error) {
		accounts, err = src.ListAccounts(gctx, userID)
		return wrap("accounts", err)
	})
	g.Go(func() (err error) {
		categories, err = src.ListCategories(gctx, userID)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		budgets, err = src.ListBudgets(gctx, userID, start)
		return wrap("budgets", err)
	})
	g.Go(func() (err error) {
		txs, err = src.ListTransactions(gctx, userID, store.TransactionFilter{From: start, To: end})
		return wrap("transactions", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fc := &FinancialContext{
		UserID:           userID,
		Accounts:         make([]AccountView, 0, len(accounts)),
		Categories:       make([]string, 0, len(categories)),
		Budgets:          make([]BudgetView, 0, len(budgets)),
		FinancialSummary: finance.Summarize(txs),
		CurrentDate:      now,
	}
	if profile != nil {
		fc.FullName = profile.FullName
	}
	for _, a := range accounts {
		fc.Accounts = append(fc.Accounts, AccountView{Name: a.Name, Currency: a.Currency, Balance: a.Balance.StringFixed(2)})
	}
	for _, c := range categories {
		fc.Categories = append(fc.Categories, c.Name)
	}
	for _, st := range finance.BudgetsWithSpending(budgets, txs) {
		fc.Budgets = append(fc.Budgets, BudgetView{
			Category: st.Budget.CategoryName,
			Amount:   st.Budget.Amount.StringFixed(2),
			Currency: st.Budget.Currency,
			Spent:    st.Spent.StringFixed(2),
			Progress: st.Progress.StringFixed(2),
			Level:    string(st.Level),
		})
	}
	return fc, nil
}

func wrap(part string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", part, err)
	}
	return nil
}
