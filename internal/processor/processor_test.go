package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/brisk/internal/events"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/hermes"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

type fakeStore struct {
	budget  *finance.Budget
	txs     []finance.Transaction
	listErr error

	lastFilter store.TransactionFilter
	lastMonth  time.Time
}

func (f *fakeStore) GetBudgetForCategory(ctx context.Context, userID, categoryID uuid.UUID, month time.Time) (*finance.Budget, error) {
	f.lastMonth = month
	if f.budget == nil || f.budget.CategoryID != categoryID {
		return nil, store.ErrNotFound
	}
	if month.Year() != f.budget.Month.Year() || month.Month() != f.budget.Month.Month() {
		return nil, store.ErrNotFound
	}
	return f.budget, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, userID uuid.UUID, filter store.TransactionFilter) ([]finance.Transaction, error) {
	f.lastFilter = filter
	return f.txs, f.listErr
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []finance.BudgetStatus
}

func (r *recordingAlerter) BudgetExceeded(userID uuid.UUID, st finance.BudgetStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, st)
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	user     uuid.UUID
	category uuid.UUID
	store    *fakeStore
	alerter  *recordingAlerter
	proc     *Processor
}

func newFixture() *fixture {
	f := &fixture{user: uuid.New(), category: uuid.New(), alerter: &recordingAlerter{}}
	f.store = &fakeStore{budget: &finance.Budget{
		ID:           uuid.New(),
		CategoryID:   f.category,
		CategoryName: "Comida",
		Amount:       d("100"),
		Currency:     finance.UYU,
		Month:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}}
	f.proc = New(f.store, f.alerter, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *fixture) expense(amount string) finance.Transaction {
	cat := f.category
	return finance.Transaction{
		ID:         uuid.New(),
		CategoryID: &cat,
		Amount:     d(amount),
		Type:       finance.Expense,
		Currency:   finance.UYU,
		Date:       time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) send(t *testing.T, subject string, evt events.TransactionEvent) {
	t.Helper()
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	f.proc.HandleTransactionEvent(subject, data)
}

func TestHandleTransactionEvent_AlertsOncePerCrossing(t *testing.T) {
	f := newFixture()

	first := f.expense("60")
	f.store.txs = []finance.Transaction{first}
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: first})
	assert.Equal(t, 0, f.alerter.count(), "60/100 is under budget")

	second := f.expense("40")
	f.store.txs = append(f.store.txs, second)
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: second})
	require.Equal(t, 1, f.alerter.count(), "spent == amount counts as exceeded")
	assert.True(t, f.alerter.alerts[0].Spent.Equal(d("100")))

	third := f.expense("5")
	f.store.txs = append(f.store.txs, third)
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: third})
	assert.Equal(t, 1, f.alerter.count(), "already alerted")

	// Deleting brings it back under and re-arms the budget.
	f.store.txs = []finance.Transaction{first}
	f.send(t, hermes.SubjectTransactionDeleted, events.TransactionEvent{UserID: f.user, Transaction: second})
	assert.Equal(t, 1, f.alerter.count())

	f.store.txs = []finance.Transaction{first, second}
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: second})
	assert.Equal(t, 2, f.alerter.count())

	assert.Equal(t, finance.Expense, f.store.lastFilter.Type)
	assert.Equal(t, f.category, f.store.lastFilter.CategoryID)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), f.store.lastFilter.To)
}

func TestCheck_Ignores(t *testing.T) {
	f := newFixture()
	f.store.txs = []finance.Transaction{f.expense("500")}

	income := f.expense("500")
	income.Type = finance.Income
	f.proc.Check(context.Background(), f.user, income)

	uncategorized := f.expense("500")
	uncategorized.CategoryID = nil
	f.proc.Check(context.Background(), f.user, uncategorized)

	other := f.expense("500")
	otherCat := uuid.New()
	other.CategoryID = &otherCat
	f.proc.Check(context.Background(), f.user, other)

	assert.Equal(t, 0, f.alerter.count())
}

func TestCheck_ListFailure(t *testing.T) {
	f := newFixture()
	f.store.listErr = errors.New("db down")
	f.proc.Check(context.Background(), f.user, f.expense("500"))
	assert.Equal(t, 0, f.alerter.count())
}

func TestHandleTransactionEvent_BadPayload(t *testing.T) {
	f := newFixture()
	assert.NotPanics(t, func() {
		f.proc.HandleTransactionEvent(hermes.SubjectTransactionRecorded, []byte("{nope"))
	})
}

func TestProcessor_PublishesThroughEvents(t *testing.T) {
	f := newFixture()
	bus := &captureBus{}
	f.proc.alerter = events.NewPublisher(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tx := f.expense("150")
	f.store.txs = []finance.Transaction{tx}
	f.proc.Check(context.Background(), f.user, tx)

	require.Len(t, bus.subjects, 1)
	assert.Equal(t, hermes.SubjectBudgetExceeded, bus.subjects[0])
}

type captureBus struct{ subjects []string }

func (c *captureBus) Publish(subject string, data any) error {
	c.subjects = append(c.subjects, subject)
	return nil
}

func TestCheck_MonthEndInLocalZone(t *testing.T) {
	montevideo, err := time.LoadLocation("America/Montevideo")
	require.NoError(t, err)

	f := newFixture()
	f.proc = New(f.store, f.alerter, montevideo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// 22:00 on Oct 31 in Montevideo is already November in UTC.
	late := f.expense("150")
	late.Date = time.Date(2026, 10, 31, 22, 0, 0, 0, montevideo)
	f.store.txs = []finance.Transaction{late}
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: late})

	octStart := time.Date(2026, 10, 1, 0, 0, 0, 0, montevideo)
	assert.True(t, f.store.lastMonth.Equal(octStart), "budget month %v", f.store.lastMonth)
	assert.True(t, f.store.lastFilter.From.Equal(octStart))
	assert.True(t, f.store.lastFilter.To.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, montevideo)))
	assert.False(t, late.Date.Before(f.store.lastFilter.From) || !late.Date.Before(f.store.lastFilter.To))
	require.Equal(t, 1, f.alerter.count())
	assert.True(t, f.alerter.alerts[0].Spent.Equal(d("150")))

	// Just after local midnight belongs to November, which has no budget.
	early := f.expense("150")
	early.Date = time.Date(2026, 11, 1, 0, 30, 0, 0, montevideo)
	f.send(t, hermes.SubjectTransactionRecorded, events.TransactionEvent{UserID: f.user, Transaction: early})
	assert.True(t, f.store.lastMonth.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, montevideo)))
	assert.Equal(t, 1, f.alerter.count())
}
