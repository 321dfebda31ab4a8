package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError carries the first rule a form input broke.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

type AccountInput struct {
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Currency Currency        `json:"currency"`
}

func (in *AccountInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "El nombre es requerido.")
	}
	if in.Balance.IsNegative() {
		return invalid("balance", "El saldo no puede ser negativo.")
	}
	if in.Currency == "" {
		return invalid("currency", "La moneda es requerida.")
	}
	if _, err := ParseCurrency(string(in.Currency)); err != nil {
		return invalid("currency", "La moneda no es válida.")
	}
	return nil
}

type CategoryInput struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Validate also normalizes the icon through the icon table.
func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "El nombre es requerido.")
	}
	if strings.TrimSpace(in.Icon) == "" {
		return invalid("icon", "El icono es requerido.")
	}
	in.Icon = DefaultIcons().Resolve(in.Icon).Name
	return nil
}

type TransactionInput struct {
	AccountID   uuid.UUID       `json:"account_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TxType          `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

// Validate checks the form rules; now bounds the date from above.
func (in *TransactionInput) Validate(now time.Time) error {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return invalid("description", "La descripción/notas es requerida.")
	}
	if !in.Amount.IsPositive() {
		return invalid("amount", "El monto debe ser positivo.")
	}
	if in.Type == "" {
		return invalid("type", "El tipo es requerido.")
	}
	if _, err := ParseTxType(string(in.Type)); err != nil {
		return invalid("type", "El tipo no es válido.")
	}
	if in.AccountID == uuid.Nil {
		return invalid("account_id", "La cuenta es requerida.")
	}
	if in.CategoryID == uuid.Nil {
		return invalid("category_id", "La categoría es requerida.")
	}
	if in.Date.IsZero() {
		return invalid("date", "La fecha es requerida.")
	}
	if in.Date.After(now) || in.Date.Year() < 1900 {
		return invalid("date", "La fecha no es válida.")
	}
	return nil
}

type BudgetInput struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   Currency        `json:"currency"`
}

func (in *BudgetInput) Validate() error {
	if in.CategoryID == uuid.Nil {
		return invalid("category_id", "La categoría es requerida.")
	}
	if !in.Amount.IsPositive() {
		return invalid("amount", "El monto debe ser positivo.")
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if _, err := ParseCurrency(string(in.Currency)); err != nil {
		return invalid("currency", "La moneda no es válida.")
	}
	return nil
}

type ProfileInput struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

func (in *ProfileInput) Validate() error {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return invalid("full_name", "El nombre es requerido.")
	}
	return nil
}
