package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/trylock/viewer-sub002/internal/compiler"
)

// EventKind names a listener callback.
type EventKind string

const (
	EventBefore  EventKind = "before"
	EventCompile EventKind = "compile"
	EventRuntime EventKind = "runtime"
	EventAfter   EventKind = "after"
)

// Event is one recorded callback. Line, Column and Message are set for
// error events only.
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    EventKind `json:"kind"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	Message string    `json:"message,omitempty"`
}

func (e Event) String() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Seq, e.Kind)
	}
	return fmt.Sprintf("%d %s %d:%d: %s", e.Seq, e.Kind, e.Line, e.Column, e.Message)
}

// Recorder is a compiler.ErrorListener that keeps every callback in order,
// stamped from its own Sequence.
type Recorder struct {
	mu     sync.Mutex
	seq    Sequence
	events []Event
}

var _ compiler.ErrorListener = (*Recorder)(nil)

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Seq = r.seq.Next()
	r.events = append(r.events, e)
}

func (r *Recorder) BeforeCompilation() { r.add(Event{Kind: EventBefore}) }
func (r *Recorder) AfterCompilation()  { r.add(Event{Kind: EventAfter}) }

func (r *Recorder) OnCompilerError(line, column int, message string) {
	r.add(Event{Kind: EventCompile, Line: line, Column: column, Message: message})
}

func (r *Recorder) OnRuntimeError(line, column int, message string) {
	r.add(Event{Kind: EventRuntime, Line: line, Column: column, Message: message})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Errors returns the "line:column: message" form of the events of kind k.
func (r *Recorder) Errors(k EventKind) []string {
	out := []string{}
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, compiler.Error{Line: e.Line, Column: e.Column, Message: e.Message}.Error())
		}
	}
	return out
}

// Reset forgets all events and restarts the sequence.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.seq.Reset()
}

func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Events() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
