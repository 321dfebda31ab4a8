// Package events defines the payloads brisk publishes and a publisher that
// tolerates running without a message bus.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

// TransactionEvent is published on every ledger write.
type TransactionEvent struct {
	UserID      uuid.UUID            `json:"user_id"`
	Transaction finance.Transaction  `json:"transaction"`
	Previous    *finance.Transaction `json:"previous,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// BudgetExceededEvent reports a budget whose spending reached its amount.
type BudgetExceededEvent struct {
	UserID    uuid.UUID        `json:"user_id"`
	BudgetID  uuid.UUID        `json:"budget_id"`
	Category  string           `json:"category"`
	Currency  finance.Currency `json:"currency"`
	Amount    decimal.Decimal  `json:"amount"`
	Spent     decimal.Decimal  `json:"spent"`
	Progress  decimal.Decimal  `json:"progress"`
	Month     string           `json:"month"`
	Timestamp time.Time        `json:"timestamp"`
}

// ChatCompletedEvent summarizes one proxied assistant exchange.
type ChatCompletedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Messages   int       `json:"messages"`
	Bytes      int64     `json:"bytes"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ServiceRegistered announces a started instance.
type ServiceRegistered struct {
	Service   string    `json:"service"`
	Port      int       `json:"port"`
	Timestamp time.Time `json:"timestamp"`
}
