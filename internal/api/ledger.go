package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, "list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []finance.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := s.store.GetAccount(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, "get account", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var in finance.AccountInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "create account", err)
		return
	}
	a, err := s.store.CreateAccount(r.Context(), userID(r), in)
	if err != nil {
		s.writeStoreError(w, r, "create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in finance.AccountInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "update account", err)
		return
	}
	a, err := s.store.UpdateAccount(r.Context(), userID(r), id, in)
	if err != nil {
		s.writeStoreError(w, r, "update account", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteAccount(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, "list categories", err)
		return
	}
	if categories == nil {
		categories = []finance.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in finance.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "create category", err)
		return
	}
	c, err := s.store.CreateCategory(r.Context(), userID(r), in)
	if err != nil {
		s.writeStoreError(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in finance.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeStoreError(w, r, "update category", err)
		return
	}
	c, err := s.store.UpdateCategory(r.Context(), userID(r), id, in)
	if err != nil {
		s.writeStoreError(w, r, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteCategory(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listIcons returns the selectable category icons.
func (s *Server) listIcons(w http.ResponseWriter, r *http.Request) {
	table := finance.DefaultIcons()
	icons := make([]finance.Icon, 0)
	for _, name := range table.Names() {
		icons = append(icons, table.Resolve(name))
	}
	writeJSON(w, http.StatusOK, icons)
}
