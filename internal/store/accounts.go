package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

const accountColumns = `id, user_id, name, currency, balance, created_at`

func scanAccount(row interface{ Scan(...any) error }) (finance.Account, error) {
	var a finance.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Currency, &a.Balance, &a.CreatedAt)
	return a, err
}

// ListAccounts returns the user's accounts, oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]finance.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []finance.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount fetches one of the user's accounts.
func (s *Store) GetAccount(ctx context.Context, userID, id uuid.UUID) (*finance.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAccount inserts an account with its opening balance.
func (s *Store) CreateAccount(ctx context.Context, userID uuid.UUID, in finance.AccountInput) (*finance.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, user_id, name, currency, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+accountColumns,
		uuid.New(), userID, in.Name, in.Currency, in.Balance,
	))
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &a, nil
}

// UpdateAccount overwrites name, currency and balance.
func (s *Store) UpdateAccount(ctx context.Context, userID, id uuid.UUID, in finance.AccountInput) (*finance.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		UPDATE accounts SET name = $1, currency = $2, balance = $3
		WHERE id = $4 AND user_id = $5
		RETURNING `+accountColumns,
		in.Name, in.Currency, in.Balance, id, userID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// DeleteAccount removes the account and, by cascade, its transactions.
func (s *Store) DeleteAccount(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
