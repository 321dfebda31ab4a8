package chat

import "sync"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Greeting seeds every new conversation log.
const Greeting = "¡Hola! Soy Brisk Insights, tu asistente financiero personal. ¿En qué puedo ayudarte hoy?"

// Turn is one entry of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Log is the ordered conversation for one session. Only the tail assistant
// turn of the current exchange may change; everything before it is frozen.
type Log struct {
	mu      sync.Mutex
	turns   []Turn
	pending int // index of the in-flight placeholder, -1 when none
}

// NewLog returns a log seeded with the assistant greeting.
func NewLog() *Log {
	return &Log{
		turns:   []Turn{{Role: RoleAssistant, Content: Greeting}},
		pending: -1,
	}
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Turns returns a copy of the conversation.
func (l *Log) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// InFlight reports whether an exchange is waiting to be finalized.
func (l *Log) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending >= 0
}

// BeginExchange appends the user turn and an empty assistant placeholder.
// It returns the placeholder index and the history to send, which excludes
// the placeholder. ok is false when an exchange is already open.
func (l *Log) BeginExchange(text string) (placeholder int, history []Turn, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending >= 0 {
		return -1, nil, false
	}
	l.turns = append(l.turns, Turn{Role: RoleUser, Content: text})
	history = make([]Turn, len(l.turns))
	copy(history, l.turns)
	l.turns = append(l.turns, Turn{Role: RoleAssistant})
	l.pending = len(l.turns) - 1
	return l.pending, history, true
}

// ReplaceTail overwrites the placeholder content. The update is dropped when
// idx is not the open placeholder at the tail.
func (l *Log) ReplaceTail(idx int, content string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isOpenTail(idx) {
		return false
	}
	l.turns[idx].Content = content
	return true
}

// Finalize freezes the placeholder.
func (l *Log) Finalize(idx int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isOpenTail(idx) {
		return false
	}
	l.pending = -1
	return true
}

// Fail writes msg into the placeholder and freezes it. An empty placeholder
// is replaced; partial content is kept and msg is appended after it.
func (l *Log) Fail(idx int, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isOpenTail(idx) {
		return false
	}
	if l.turns[idx].Content == "" {
		l.turns[idx].Content = msg
	} else {
		l.turns[idx].Content += "\n\n" + msg
	}
	l.pending = -1
	return true
}

// Tail returns the last turn.
func (l *Log) Tail() Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.turns[len(l.turns)-1]
}

func (l *Log) isOpenTail(idx int) bool {
	return idx >= 0 && idx == l.pending && idx == len(l.turns)-1 && l.turns[idx].Role == RoleAssistant
}
