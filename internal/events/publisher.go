package events

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/hermes"
)

// Bus is the subset of the NATS client the publisher needs.
type Bus interface {
	Publish(subject string, data any) error
}

// Publisher publishes brisk events. A nil Bus turns every call into a no-op,
// so the service runs unchanged without NATS.
type Publisher struct {
	bus    Bus
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(bus Bus, logger *slog.Logger) *Publisher {
	return &Publisher{bus: bus, logger: logger, now: time.Now}
}

func (p *Publisher) publish(subject string, data any) {
	if p == nil || p.bus == nil {
		return
	}
	if err := p.bus.Publish(subject, data); err != nil {
		p.logger.Warn("publish failed", "subject", subject, "error", err)
	}
}

func (p *Publisher) TransactionRecorded(userID uuid.UUID, tx finance.Transaction) {
	p.publish(hermes.SubjectTransactionRecorded, TransactionEvent{
		UserID: userID, Transaction: tx, Timestamp: p.now().UTC(),
	})
}

func (p *Publisher) TransactionUpdated(userID uuid.UUID, prev, tx finance.Transaction) {
	p.publish(hermes.SubjectTransactionUpdated, TransactionEvent{
		UserID: userID, Transaction: tx, Previous: &prev, Timestamp: p.now().UTC(),
	})
}

func (p *Publisher) TransactionDeleted(userID uuid.UUID, tx finance.Transaction) {
	p.publish(hermes.SubjectTransactionDeleted, TransactionEvent{
		UserID: userID, Transaction: tx, Timestamp: p.now().UTC(),
	})
}

// BudgetExceeded publishes the status of a budget at or over its amount.
func (p *Publisher) BudgetExceeded(userID uuid.UUID, st finance.BudgetStatus) {
	p.publish(hermes.SubjectBudgetExceeded, BudgetExceededEvent{
		UserID:    userID,
		BudgetID:  st.ID,
		Category:  st.CategoryName,
		Currency:  st.Currency,
		Amount:    st.Amount,
		Spent:     st.Spent,
		Progress:  st.Progress,
		Month:     st.Month.Format("2006-01"),
		Timestamp: p.now().UTC(),
	})
}

func (p *Publisher) ChatCompleted(evt ChatCompletedEvent) {
	evt.Timestamp = p.now().UTC()
	p.publish(hermes.SubjectChatCompleted, evt)
}

func (p *Publisher) ServiceRegistered(port int) {
	p.publish(hermes.SubjectServiceRegistered, ServiceRegistered{
		Service: "brisk", Port: port, Timestamp: p.now().UTC(),
	})
}
