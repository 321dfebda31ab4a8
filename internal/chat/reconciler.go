package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// State is the phase of the current request/response cycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateFinalized
	StateFailed
)

var stateNames = [...]string{"idle", "sending", "streaming", "finalized", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Opener opens the streamed response for a history. *Transport satisfies it.
type Opener interface {
	Open(ctx context.Context, history []Turn) (io.ReadCloser, error)
}

// Notifier surfaces failures outside the conversation, e.g. a toast.
type Notifier interface {
	Notify(message string, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, err error)

func (f NotifierFunc) Notify(message string, err error) { f(message, err) }

// Outcome reports how a cycle ended.
type Outcome struct {
	State   State
	Content string
	Err     error
}

// Reconciler runs one exchange at a time against a Log.
type Reconciler struct {
	log      *Log
	opener   Opener
	notifier Notifier
	logger   *slog.Logger

	clearInput func()
	onUpdate   func([]Turn)
	onState    func(State)

	mu    sync.Mutex
	state State
}

// ReconcilerOption customises a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithNotifier sets the out-of-band failure channel.
func WithNotifier(n Notifier) ReconcilerOption {
	return func(r *Reconciler) { r.notifier = n }
}

// WithInputClearer is called once the exchange has been recorded.
func WithInputClearer(fn func()) ReconcilerOption {
	return func(r *Reconciler) { r.clearInput = fn }
}

// WithUpdateHook receives a snapshot of the log after every change.
func WithUpdateHook(fn func([]Turn)) ReconcilerOption {
	return func(r *Reconciler) { r.onUpdate = fn }
}

// WithStateHook receives every state transition.
func WithStateHook(fn func(State)) ReconcilerOption {
	return func(r *Reconciler) { r.onState = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = l }
}

// NewReconciler wires a log to an opener.
func NewReconciler(log *Log, opener Opener, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		log:    log,
		opener: opener,
		logger: slog.Default(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current phase.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Log returns the conversation.
func (r *Reconciler) Log() *Log {
	return r.log
}

// Submit runs a full cycle for input. It returns ErrEmptyInput or ErrBusy
// without touching the log; every other failure is written into the
// assistant turn and reported through the Outcome.
func (r *Reconciler) Submit(ctx context.Context, input string) (Outcome, error) {
	if strings.TrimSpace(input) == "" {
		return Outcome{State: StateIdle}, ErrEmptyInput
	}

	r.mu.Lock()
	if st := r.state; st != StateIdle {
		r.mu.Unlock()
		return Outcome{State: st}, ErrBusy
	}
	idx, history, ok := r.log.BeginExchange(input)
	if !ok {
		r.mu.Unlock()
		return Outcome{State: StateIdle}, ErrBusy
	}
	r.state = StateSending
	r.mu.Unlock()

	r.emitState(StateSending)
	r.emitUpdate()
	if r.clearInput != nil {
		r.clearInput()
	}

	outcome := r.run(ctx, idx, history)

	r.setState(outcome.State)
	r.setState(StateIdle)
	return outcome, nil
}

func (r *Reconciler) run(ctx context.Context, idx int, history []Turn) Outcome {
	body, err := r.opener.Open(ctx, history)
	if err != nil {
		return r.fail(idx, err)
	}
	defer body.Close()

	first := &firstByteReader{r: body, onFirst: func() { r.setState(StateStreaming) }}

	dec := NewDecoder()
	final, err := dec.Consume(first, func(text string) {
		if !r.log.ReplaceTail(idx, text) {
			r.logger.Warn("dropping chat update for stale placeholder", "index", idx)
			return
		}
		r.emitUpdate()
	})
	if err != nil {
		return r.fail(idx, err)
	}

	r.log.Finalize(idx)
	r.emitUpdate()
	r.logger.Debug("chat cycle finalized", "bytes", dec.Buffered())
	return Outcome{State: StateFinalized, Content: final}
}

func (r *Reconciler) fail(idx int, err error) Outcome {
	msg := UserMessage(err)
	r.log.Fail(idx, msg)
	r.emitUpdate()
	r.logger.Warn("chat cycle failed", "error", err)
	if r.notifier != nil {
		r.notifier.Notify(MsgNotification, err)
	}
	return Outcome{State: StateFailed, Content: r.log.Tail().Content, Err: err}
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.emitState(s)
}

func (r *Reconciler) emitState(s State) {
	if r.onState != nil {
		r.onState(s)
	}
}

func (r *Reconciler) emitUpdate() {
	if r.onUpdate != nil {
		r.onUpdate(r.log.Turns())
	}
}

type firstByteReader struct {
	r       io.Reader
	onFirst func()
	seen    bool
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 && !f.seen {
		f.seen = true
		f.onFirst()
	}
	return n, err
}
