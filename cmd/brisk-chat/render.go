package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/brisk/internal/chat"
)

// renderer prints the in-flight assistant turn as snapshots arrive. Each
// snapshot replaces the previous one, so only the new suffix is written when
// the text grew; otherwise the turn is printed again on a fresh line.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	printed string
	active  bool
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// begin starts rendering a new assistant turn.
func (r *renderer) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printed = ""
	r.active = true
	fmt.Fprint(r.out, "brisk> ")
}

// update receives the full log after every change.
func (r *renderer) update(turns []chat.Turn) {
	if len(turns) == 0 {
		return
	}
	tail := turns[len(turns)-1]
	if tail.Role != chat.RoleAssistant {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || tail.Content == r.printed {
		return
	}
	if strings.HasPrefix(tail.Content, r.printed) {
		fmt.Fprint(r.out, tail.Content[len(r.printed):])
	} else {
		fmt.Fprint(r.out, "\n↻ ", tail.Content)
	}
	r.printed = tail.Content
}

// end closes the current turn.
func (r *renderer) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		fmt.Fprintln(r.out)
	}
	r.active = false
}

func printHistory(out io.Writer, turns []chat.Turn) {
	for _, t := range turns {
		who := "tú"
		if t.Role == chat.RoleAssistant {
			who = "brisk"
		}
		fmt.Fprintf(out, "%s> %s\n", who, t.Content)
	}
}
