package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

const maxListLimit = 500

// listTransactions supports ?month=YYYY-MM, ?type=, ?category_id= and ?limit=.
// Without month the whole history is returned.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.TransactionFilter

	if q.Get("month") != "" {
		month, ok := s.month(w, r)
		if !ok {
			return
		}
		f.From, f.To = finance.MonthRange(month)
	}
	if raw := q.Get("type"); raw != "" {
		typ, err := finance.ParseTxType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "El tipo no es válido.")
			return
		}
		f.Type = typ
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Identificador inválido")
			return
		}
		f.CategoryID = id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Límite inválido")
			return
		}
		f.Limit = min(n, maxListLimit)
	}

	txs, err := s.store.ListTransactions(r.Context(), userID(r), f)
	if err != nil {
		s.writeStoreError(w, r, "list transactions", err)
		return
	}
	if txs == nil {
		txs = []finance.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, err := s.store.GetTransaction(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in finance.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(s.now()); err != nil {
		s.writeStoreError(w, r, "create transaction", err)
		return
	}
	user := userID(r)
	tx, err := s.store.AddTransaction(r.Context(), user, in)
	if err != nil {
		s.writeStoreError(w, r, "create transaction", err)
		return
	}
	s.events.TransactionRecorded(user, *tx)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in finance.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(s.now()); err != nil {
		s.writeStoreError(w, r, "update transaction", err)
		return
	}
	user := userID(r)
	prev, tx, err := s.store.UpdateTransaction(r.Context(), user, id, in)
	if err != nil {
		s.writeStoreError(w, r, "update transaction", err)
		return
	}
	s.events.TransactionUpdated(user, *prev, *tx)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user := userID(r)
	tx, err := s.store.DeleteTransaction(r.Context(), user, id)
	if err != nil {
		s.writeStoreError(w, r, "delete transaction", err)
		return
	}
	s.events.TransactionDeleted(user, *tx)
	w.WriteHeader(http.StatusNoContent)
}
