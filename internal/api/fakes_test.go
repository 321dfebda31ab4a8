package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/brisk/internal/auth"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

// memStore is an in-memory Store scoped by user like the real one.
type memStore struct {
	mu         sync.Mutex
	profiles   map[uuid.UUID]finance.Profile
	accounts   map[uuid.UUID]finance.Account
	categories map[uuid.UUID]finance.Category
	txs        map[uuid.UUID]finance.Transaction
	budgets    map[uuid.UUID]finance.Budget
	failList   error
}

func newMemStore() *memStore {
	return &memStore{
		profiles:   map[uuid.UUID]finance.Profile{},
		accounts:   map[uuid.UUID]finance.Account{},
		categories: map[uuid.UUID]finance.Category{},
		txs:        map[uuid.UUID]finance.Transaction{},
		budgets:    map[uuid.UUID]finance.Budget{},
	}
}

func (m *memStore) GetProfile(_ context.Context, userID uuid.UUID) (*finance.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) UpsertProfile(_ context.Context, userID uuid.UUID, in finance.ProfileInput) (*finance.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := finance.Profile{ID: userID, FullName: in.FullName, AvatarURL: in.AvatarURL, UpdatedAt: time.Now()}
	m.profiles[userID] = p
	return &p, nil
}

func (m *memStore) ListAccounts(_ context.Context, userID uuid.UUID) ([]finance.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []finance.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAccount(_ context.Context, userID, id uuid.UUID) (*finance.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) CreateAccount(_ context.Context, userID uuid.UUID, in finance.AccountInput) (*finance.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := finance.Account{ID: uuid.New(), UserID: userID, Name: in.Name, Currency: in.Currency, Balance: in.Balance, CreatedAt: time.Now()}
	m.accounts[a.ID] = a
	return &a, nil
}

func (m *memStore) UpdateAccount(_ context.Context, userID, id uuid.UUID, in finance.AccountInput) (*finance.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	a.Name, a.Currency, a.Balance = in.Name, in.Currency, in.Balance
	m.accounts[id] = a
	return &a, nil
}

func (m *memStore) DeleteAccount(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memStore) ListCategories(_ context.Context, userID uuid.UUID) ([]finance.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []finance.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreateCategory(_ context.Context, userID uuid.UUID, in finance.CategoryInput) (*finance.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := finance.Category{ID: uuid.New(), UserID: userID, Name: in.Name, Icon: in.Icon}
	m.categories[c.ID] = c
	return &c, nil
}

func (m *memStore) UpdateCategory(_ context.Context, userID, id uuid.UUID, in finance.CategoryInput) (*finance.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	c.Name, c.Icon = in.Name, in.Icon
	m.categories[id] = c
	return &c, nil
}

func (m *memStore) DeleteCategory(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, userID uuid.UUID, f store.TransactionFilter) ([]finance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []finance.Transaction
	for _, t := range m.txs {
		if t.UserID != userID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.Date.Before(f.To) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, id uuid.UUID) (*finance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// applyLocked mirrors the balance bookkeeping the database does.
func (m *memStore) applyLocked(userID uuid.UUID, in finance.TransactionInput, id uuid.UUID) (finance.Transaction, error) {
	a, ok := m.accounts[in.AccountID]
	if !ok || a.UserID != userID {
		return finance.Transaction{}, store.ErrNotFound
	}
	c, ok := m.categories[in.CategoryID]
	if !ok || c.UserID != userID {
		return finance.Transaction{}, store.ErrNotFound
	}
	catID := c.ID
	t := finance.Transaction{
		ID: id, UserID: userID, AccountID: a.ID, CategoryID: &catID, CategoryName: c.Name,
		AccountName: a.Name, Amount: in.Amount, Type: in.Type, Currency: a.Currency,
		Description: in.Description, Date: in.Date,
	}
	a.Balance = a.Balance.Add(t.Effect())
	m.accounts[a.ID] = a
	m.txs[id] = t
	return t, nil
}

func (m *memStore) revertLocked(t finance.Transaction) {
	a := m.accounts[t.AccountID]
	a.Balance = a.Balance.Sub(t.Effect())
	m.accounts[a.ID] = a
	delete(m.txs, t.ID)
}

func (m *memStore) AddTransaction(_ context.Context, userID uuid.UUID, in finance.TransactionInput) (*finance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.applyLocked(userID, in, uuid.New())
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, userID, id uuid.UUID, in finance.TransactionInput) (*finance.Transaction, *finance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.txs[id]
	if !ok || old.UserID != userID {
		return nil, nil, store.ErrNotFound
	}
	m.revertLocked(old)
	t, err := m.applyLocked(userID, in, id)
	if err != nil {
		return nil, nil, err
	}
	return &old, &t, nil
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, id uuid.UUID) (*finance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.txs[id]
	if !ok || old.UserID != userID {
		return nil, store.ErrNotFound
	}
	m.revertLocked(old)
	return &old, nil
}

func (m *memStore) ListBudgets(_ context.Context, userID uuid.UUID, month time.Time) ([]finance.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, _ := finance.MonthRange(month)
	var out []finance.Budget
	for _, b := range m.budgets {
		if b.UserID == userID && b.Month.Equal(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateBudget(_ context.Context, userID uuid.UUID, month time.Time, in finance.BudgetInput) (*finance.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, _ := finance.MonthRange(month)
	c, ok := m.categories[in.CategoryID]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	for _, b := range m.budgets {
		if b.UserID == userID && b.CategoryID == in.CategoryID && b.Month.Equal(start) {
			return nil, store.ErrDuplicateBudget
		}
	}
	b := finance.Budget{
		ID: uuid.New(), UserID: userID, CategoryID: c.ID, CategoryName: c.Name, CategoryIcon: c.Icon,
		Amount: in.Amount, Currency: in.Currency, Month: start,
	}
	m.budgets[b.ID] = b
	return &b, nil
}

func (m *memStore) UpdateBudgetAmount(_ context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*finance.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, store.ErrNotFound
	}
	b.Amount = amount
	m.budgets[id] = b
	return &b, nil
}

func (m *memStore) DeleteBudget(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

type published struct {
	subject string
	data    any
}

type fakeBus struct {
	mu   sync.Mutex
	msgs []published
}

func (b *fakeBus) Publish(subject string, data any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{subject, data})
	return nil
}

func (b *fakeBus) subjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.msgs {
		out = append(out, m.subject)
	}
	return out
}

const testSecret = "test-secret"

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bearer(t *testing.T, user uuid.UUID) string {
	t.Helper()
	token, err := auth.NewVerifier(testSecret).Issue(user, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, srv *Server, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")

func newTestServer(st *memStore, deps ...func(*Deps)) *Server {
	d := Deps{
		Port:     8780,
		Store:    st,
		Verifier: auth.NewVerifier(testSecret),
		Logger:   discardLogger(),
		Location: time.UTC,
	}
	for _, fn := range deps {
		fn(&d)
	}
	srv := NewServer(d)
	srv.now = func() time.Time { return testNow }
	return srv
}
