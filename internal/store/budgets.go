package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

const budgetSelect = `
	SELECT b.id, b.user_id, b.category_id, c.name, c.icon, b.amount, b.currency, b.month
	FROM budgets b
	JOIN categories c ON c.id = b.category_id`

func scanBudget(row interface{ Scan(...any) error }) (finance.Budget, error) {
	var b finance.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.CategoryIcon, &b.Amount, &b.Currency, &b.Month)
	return b, err
}

// ListBudgets returns the user's budgets for the month containing month.
func (s *Store) ListBudgets(ctx context.Context, userID uuid.UUID, month time.Time) ([]finance.Budget, error) {
	start, _ := finance.MonthRange(month)
	rows, err := s.pool.Query(ctx, budgetSelect+`
		WHERE b.user_id = $1 AND b.month = $2
		ORDER BY c.name`, userID, start)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []finance.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBudgetForCategory returns the category's budget for the month containing month.
func (s *Store) GetBudgetForCategory(ctx context.Context, userID, categoryID uuid.UUID, month time.Time) (*finance.Budget, error) {
	start, _ := finance.MonthRange(month)
	b, err := scanBudget(s.pool.QueryRow(ctx, budgetSelect+`
		WHERE b.user_id = $1 AND b.category_id = $2 AND b.month = $3`, userID, categoryID, start))
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// CreateBudget sets a budget for a category in the month containing month.
// A second budget for the same category and month yields ErrDuplicateBudget.
func (s *Store) CreateBudget(ctx context.Context, userID uuid.UUID, month time.Time, in finance.BudgetInput) (*finance.Budget, error) {
	start, _ := finance.MonthRange(month)

	var owned bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
		in.CategoryID, userID,
	).Scan(&owned)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !owned {
		return nil, fmt.Errorf("category %s: %w", in.CategoryID, ErrNotFound)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount, currency, month)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, in.CategoryID, in.Amount, in.Currency, start,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateBudget
		}
		return nil, fmt.Errorf("insert budget: %w", err)
	}
	return s.getBudget(ctx, userID, id)
}

// UpdateBudgetAmount changes only the amount of an existing budget.
func (s *Store) UpdateBudgetAmount(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*finance.Budget, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE budgets SET amount = $1 WHERE id = $2 AND user_id = $3`,
		amount, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.getBudget(ctx, userID, id)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) getBudget(ctx context.Context, userID, id uuid.UUID) (*finance.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx, budgetSelect+` WHERE b.id = $1 AND b.user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}
