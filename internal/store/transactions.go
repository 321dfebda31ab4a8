package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	From       time.Time
	To         time.Time // exclusive
	Type       finance.TxType
	CategoryID uuid.UUID
	Limit      int
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.account_id, t.category_id, COALESCE(c.name, ''), a.name,
	       t.amount, t.type, t.currency, t.description, t.date, t.created_at
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (finance.Transaction, error) {
	var t finance.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.CategoryName, &t.AccountName,
		&t.Amount, &t.Type, &t.Currency, &t.Description, &t.Date, &t.CreatedAt)
	return t, err
}

// ListTransactions returns the user's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]finance.Transaction, error) {
	where := []string{"t.user_id = $1"}
	args := []any{userID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !f.From.IsZero() {
		add("t.date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("t.date < $%d", f.To)
	}
	if f.Type != "" {
		add("t.type = $%d", f.Type)
	}
	if f.CategoryID != uuid.Nil {
		add("t.category_id = $%d", f.CategoryID)
	}

	query := transactionSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY t.date DESC, t.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []finance.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransaction fetches one of the user's transactions.
func (s *Store) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*finance.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, transactionSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// AddTransaction records a transaction and applies it to the account balance
// atomically. The transaction takes the account's currency.
func (s *Store) AddTransaction(ctx context.Context, userID uuid.UUID, in finance.TransactionInput) (*finance.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	currency, err := lockAccount(ctx, tx, userID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, tx, userID, in.CategoryID); err != nil {
		return nil, err
	}

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, amount, type, currency, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		id, userID, in.AccountID, in.CategoryID, in.Amount, in.Type, currency, in.Description, in.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := adjustBalance(ctx, tx, in.AccountID, effect(in.Type, in.Amount)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTransaction(ctx, userID, id)
}

// UpdateTransaction rewrites a transaction, reverting its old effect on the
// old account and applying the new effect on the (possibly different) new one.
// It returns the previous and the updated rows.
func (s *Store) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, in finance.TransactionInput) (prev, updated *finance.Transaction, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	old, err := lockTransaction(ctx, tx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := adjustBalance(ctx, tx, old.AccountID, old.Effect().Neg()); err != nil {
		return nil, nil, err
	}

	currency, err := lockAccount(ctx, tx, userID, in.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkCategory(ctx, tx, userID, in.CategoryID); err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE transactions
		SET account_id = $1, category_id = $2, amount = $3, type = $4, currency = $5, description = $6, date = $7
		WHERE id = $8`,
		in.AccountID, in.CategoryID, in.Amount, in.Type, currency, in.Description, in.Date, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update transaction: %w", err)
	}
	if err := adjustBalance(ctx, tx, in.AccountID, effect(in.Type, in.Amount)); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	updated, err = s.GetTransaction(ctx, userID, id)
	return old, updated, err
}

// DeleteTransaction removes a transaction and reverts its balance effect.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) (*finance.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	old, err := lockTransaction(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}
	if err := adjustBalance(ctx, tx, old.AccountID, old.Effect().Neg()); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return old, nil
}

func effect(typ finance.TxType, amount decimal.Decimal) decimal.Decimal {
	return finance.Transaction{Type: typ, Amount: amount}.Effect()
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID, accountID uuid.UUID) (finance.Currency, error) {
	var currency finance.Currency
	err := tx.QueryRow(ctx, `
		SELECT currency FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		accountID, userID,
	).Scan(&currency)
	if err != nil {
		return "", fmt.Errorf("lock account: %w", notFound(err))
	}
	return currency, nil
}

func lockTransaction(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*finance.Transaction, error) {
	t, err := scanTransaction(tx.QueryRow(ctx, transactionSelect+`
		WHERE t.id = $1 AND t.user_id = $2 FOR UPDATE OF t`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("lock transaction: %w", notFound(err))
	}
	return &t, nil
}

func checkCategory(ctx context.Context, tx pgx.Tx, userID, categoryID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
		categoryID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	return nil
}

func adjustBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, delta, accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjust balance: account %s: %w", accountID, ErrNotFound)
	}
	return nil
}
