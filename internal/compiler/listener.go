package compiler

import (
	"fmt"
	"sync"

	"github.com/trylock/viewer-sub002/internal/functions"
)

// ErrorListener receives diagnostics of a compilation and of the runtime
// evaluation of the compiled query.
type ErrorListener interface {
	BeforeCompilation()
	OnCompilerError(line, column int, message string)
	OnRuntimeError(line, column int, message string)
	AfterCompilation()
}

// NopListener discards everything.
type NopListener struct{}

func (NopListener) BeforeCompilation()               {}
func (NopListener) OnCompilerError(int, int, string) {}
func (NopListener) OnRuntimeError(int, int, string)  {}
func (NopListener) AfterCompilation()                {}

// Error is a positioned diagnostic.
type Error struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Collector is an ErrorListener that records diagnostics. It is safe for
// concurrent use; runtime errors may arrive from any enumerating goroutine.
type Collector struct {
	mu       sync.Mutex
	compile  []Error
	runtime  []Error
	sessions int
	open     int
}

func (c *Collector) BeforeCompilation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions++
	c.open++
}

func (c *Collector) AfterCompilation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open--
}

func (c *Collector) OnCompilerError(line, column int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compile = append(c.compile, Error{Line: line, Column: column, Message: message})
}

func (c *Collector) OnRuntimeError(line, column int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runtime = append(c.runtime, Error{Line: line, Column: column, Message: message})
}

// CompileErrors returns the compile errors recorded so far.
func (c *Collector) CompileErrors() []Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Error(nil), c.compile...)
}

// RuntimeErrors returns the runtime errors recorded so far.
func (c *Collector) RuntimeErrors() []Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Error(nil), c.runtime...)
}

// Err returns the first compile error, or nil.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.compile) == 0 {
		return nil
	}
	return c.compile[0]
}

// Balanced reports whether every BeforeCompilation was followed by
// AfterCompilation, and how many compilations were observed.
func (c *Collector) Balanced() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open == 0, c.sessions
}

var _ functions.ErrorSink = (*runtimeSink)(nil)

// runtimeSink de-duplicates runtime errors of one compiled query.
type runtimeSink struct {
	c        *Compiler
	listener ErrorListener
	run      string

	mu   sync.Mutex
	seen map[Error]struct{}
}

func (s *runtimeSink) OnRuntimeError(line, column int, message string) {
	key := Error{Line: line, Column: column, Message: message}
	s.mu.Lock()
	if _, dup := s.seen[key]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[key] = struct{}{}
	s.mu.Unlock()

	s.c.metrics.RuntimeError()
	s.c.logger.Debug("runtime error", "run", s.run, "line", line, "column", column, "message", message)
	s.listener.OnRuntimeError(line, column, message)
}
