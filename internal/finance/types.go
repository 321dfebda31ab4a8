package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is an ISO code accepted by the ledger.
type Currency string

const (
	USD Currency = "USD"
	UYU Currency = "UYU"
)

// DefaultCurrency is used when nothing else pins a currency down.
const DefaultCurrency = UYU

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case USD, UYU:
		return Currency(s), nil
	default:
		return "", fmt.Errorf("unsupported currency %q", s)
	}
}

// TxType distinguishes money in from money out.
type TxType string

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// ParseTxType validates a transaction type.
func ParseTxType(s string) (TxType, error) {
	switch TxType(s) {
	case Income, Expense:
		return TxType(s), nil
	default:
		return "", fmt.Errorf("unsupported transaction type %q", s)
	}
}

// Uncategorized labels spending without a category.
const Uncategorized = "Sin Categoría"

type Account struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Name      string          `json:"name"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is a ledger entry. Currency always matches the account's.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	AccountName  string          `json:"account_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TxType          `json:"type"`
	Currency     Currency        `json:"currency"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Effect is the signed change the transaction applies to its account.
func (t Transaction) Effect() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Budget caps spending for one category in one month.
type Budget struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	CategoryIcon string          `json:"category_icon,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	Month        time.Time       `json:"month"`
}

type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MonthRange returns the first instant of t's month and the first instant of
// the following month, in t's location.
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
