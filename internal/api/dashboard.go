package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	month, ok := s.month(w, r)
	if !ok {
		return
	}
	user := userID(r)
	start, end := finance.MonthRange(month)

	var (
		accounts []finance.Account
		txs      []finance.Transaction
		budgets  []finance.Budget
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		accounts, err = s.store.ListAccounts(ctx, user)
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactions(ctx, user, store.TransactionFilter{From: start, To: end})
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.store.ListBudgets(ctx, user, month)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeStoreError(w, r, "dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, finance.BuildDashboard(month, accounts, txs, budgets))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in finance.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "update profile", err)
		return
	}
	p, err := s.store.UpsertProfile(r.Context(), userID(r), in)
	if err != nil {
		s.writeStoreError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
