// Package hermes carries brisk's domain events over NATS.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectTransactionRecorded = "brisk.transaction.recorded"
	SubjectTransactionUpdated  = "brisk.transaction.updated"
	SubjectTransactionDeleted  = "brisk.transaction.deleted"
	// SubjectTransactionAll matches every transaction subject.
	SubjectTransactionAll = "brisk.transaction.>"

	SubjectBudgetExceeded    = "brisk.budget.exceeded"
	SubjectChatCompleted     = "brisk.agent.chat.completed"
	SubjectServiceRegistered = "brisk.service.registered"

	// QueueBudgetProcessor spreads transaction events over brisk replicas so
	// each budget crossing is evaluated once.
	QueueBudgetProcessor = "brisk-budget-processor"
)

// Headers stamped on every published event.
const (
	HeaderEventID     = "Brisk-Event-Id"
	HeaderContentType = "Content-Type"
)

// Handler receives a decoded subject and raw JSON payload.
type Handler func(subject string, data []byte)

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

// NewClient connects to NATS, retrying in the background while the server is
// unreachable. ctx bounds the first connection attempt.
func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("brisk"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// Publish sends data as a JSON event on subject.
func (c *Client) Publish(subject string, data any) error {
	msg, err := newMessage(subject, data)
	if err != nil {
		return err
	}
	return c.conn.PublishMsg(msg)
}

// Subscribe delivers every message on subject to handler. A non-empty queue
// joins a queue group, so only one member receives each message.
func (c *Client) Subscribe(subject, queue string, handler Handler) error {
	cb := c.deliver(handler)
	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = c.conn.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = c.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Close drains subscriptions so in-flight handlers finish, then disconnects.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}

func newMessage(subject string, data any) (*nats.Msg, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(HeaderContentType, "application/json")
	msg.Header.Set(HeaderEventID, uuid.NewString())
	return msg, nil
}

// deliver wraps handler so a panic in one event does not kill the
// subscription goroutine.
func (c *Client) deliver(handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("event handler panicked",
					"subject", msg.Subject,
					"event_id", msg.Header.Get(HeaderEventID),
					"panic", r,
				)
			}
		}()
		handler(msg.Subject, msg.Data)
	}
}
