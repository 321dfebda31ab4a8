package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

// listBudgets returns the month's budgets with spending computed against them.
func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	month, ok := s.month(w, r)
	if !ok {
		return
	}
	user := userID(r)
	budgets, err := s.store.ListBudgets(r.Context(), user, month)
	if err != nil {
		s.writeStoreError(w, r, "list budgets", err)
		return
	}
	start, end := finance.MonthRange(month)
	txs, err := s.store.ListTransactions(r.Context(), user, store.TransactionFilter{From: start, To: end, Type: finance.Expense})
	if err != nil {
		s.writeStoreError(w, r, "list budget transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, finance.BudgetsWithSpending(budgets, txs))
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	month, ok := s.month(w, r)
	if !ok {
		return
	}
	var in finance.BudgetInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "create budget", err)
		return
	}
	b, err := s.store.CreateBudget(r.Context(), userID(r), month, in)
	if err != nil {
		s.writeStoreError(w, r, "create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

type budgetAmount struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) updateBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in budgetAmount
	if !decode(w, r, &in) {
		return
	}
	if !in.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El monto debe ser positivo.", "field": "amount"})
		return
	}
	b, err := s.store.UpdateBudgetAmount(r.Context(), userID(r), id, in.Amount)
	if err != nil {
		s.writeStoreError(w, r, "update budget", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteBudget(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, "delete budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
