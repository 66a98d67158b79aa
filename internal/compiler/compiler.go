package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trylock/viewer-sub002/internal/expr"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/metrics"
	"github.com/trylock/viewer-sub002/internal/query"
	"github.com/trylock/viewer-sub002/internal/querylang"
)

// DefaultParseCacheSize is the number of parsed texts kept when Options
// leaves ParseCacheSize zero.
const DefaultParseCacheSize = 256

// QueryFactory creates the initial query of a path pattern.
type QueryFactory interface {
	CreateQuery(ctx context.Context, pattern string) (*query.Query, error)
}

// QueryFactoryFunc adapts a function to QueryFactory.
type QueryFactoryFunc func(ctx context.Context, pattern string) (*query.Query, error)

// CreateQuery calls f.
func (f QueryFactoryFunc) CreateQuery(ctx context.Context, pattern string) (*query.Query, error) {
	return f(ctx, pattern)
}

// ViewRepository looks up stored query text by view name.
type ViewRepository interface {
	Lookup(name string) (text string, ok bool)
}

// Options configures a Compiler. The zero value is usable.
type Options struct {
	Logger         *slog.Logger     // nil: slog.Default()
	Metrics        *metrics.Metrics // nil: no metrics
	ParseCacheSize int              // <= 0: DefaultParseCacheSize
}

// Compiler compiles query text. Views may be nil when no views exist.
type Compiler struct {
	runtime *functions.Runtime
	factory QueryFactory
	views   ViewRepository
	logger  *slog.Logger
	metrics *metrics.Metrics
	parsed  *lru.Cache[string, parseResult]
}

type parseResult struct {
	ast querylang.Query
	err error
}

// New creates a compiler.
func New(rt *functions.Runtime, factory QueryFactory, views ViewRepository, opts Options) *Compiler {
	size := opts.ParseCacheSize
	if size <= 0 {
		size = DefaultParseCacheSize
	}
	cache, err := lru.New[string, parseResult](size)
	if err != nil {
		panic(fmt.Sprintf("compiler: parse cache: %v", err))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{
		runtime: rt,
		factory: factory,
		views:   views,
		logger:  logger,
		metrics: opts.Metrics,
		parsed:  cache,
	}
}

// Runtime returns the function runtime queries are evaluated with.
func (c *Compiler) Runtime() *functions.Runtime {
	return c.runtime
}

// Compile compiles text. It returns nil after reporting at least one compile
// error to listener. A nil listener discards diagnostics.
func (c *Compiler) Compile(ctx context.Context, text string, listener ErrorListener) *query.Query {
	if listener == nil {
		listener = NopListener{}
	}
	run := uuid.Must(uuid.NewV7()).String()
	start := time.Now()

	listener.BeforeCompilation()
	defer listener.AfterCompilation()

	cc := &compilation{
		Compiler: c,
		ctx:      ctx,
		listener: listener,
		run:      run,
		sink:     &runtimeSink{c: c, listener: listener, run: run, seen: make(map[Error]struct{})},
	}
	q := cc.compileText(text, expr.Position{})
	ok := q != nil && cc.errors == 0

	elapsed := time.Since(start)
	c.metrics.ObserveCompilation(ok, elapsed)
	if !ok {
		c.logger.Debug("query compilation failed",
			"run", run,
			"errors", cc.errors,
			"duration", elapsed)
		return nil
	}
	c.logger.Debug("query compiled",
		"run", run,
		"query", text,
		"duration", elapsed)
	return q.WithText(text)
}

// Parse parses text through the compiler's cache.
func (c *Compiler) Parse(text string) (querylang.Query, error) {
	if r, ok := c.parsed.Get(text); ok {
		return r.ast, r.err
	}
	ast, err := querylang.Parse(text)
	c.parsed.Add(text, parseResult{ast: ast, err: err})
	return ast, err
}

// compilation is the state of one Compile call.
type compilation struct {
	*Compiler
	ctx      context.Context
	listener ErrorListener
	run      string
	sink     *runtimeSink
	errors   int

	// views being expanded, outermost first
	stack []string
}

func (cc *compilation) report(pos expr.Position, msg string) {
	cc.errors++
	cc.listener.OnCompilerError(pos.Line, pos.Column, msg)
}

// errorAt reports an error of the text being compiled. Inside a view the
// message names the view.
func (cc *compilation) errorAt(pos expr.Position, format string, args ...any) {
	cc.report(pos, cc.inView(fmt.Sprintf(format, args...)))
}

func (cc *compilation) inView(msg string) string {
	if len(cc.stack) == 0 {
		return msg
	}
	return fmt.Sprintf("in view %s: %s", expr.QuoteName(cc.stack[len(cc.stack)-1]), msg)
}

// sinkFor returns the sink of expressions in the current text. Errors
// inside a view are moved to the outermost reference; positions inside a
// view's text mean nothing to the caller.
func (cc *compilation) sinkFor(ref expr.Position) functions.ErrorSink {
	if len(cc.stack) == 0 {
		return cc.sink
	}
	prefix := cc.inView("")
	return functions.ErrorSinkFunc(func(_, _ int, message string) {
		cc.sink.OnRuntimeError(ref.Line, ref.Column, prefix+message)
	})
}

// compileText parses and compiles text. While a view is expanded, errors
// are reported at ref, the position of the outermost view reference.
func (cc *compilation) compileText(text string, ref expr.Position) *query.Query {
	ast, err := cc.Parse(text)
	if err != nil {
		var se *querylang.SyntaxError
		if !errors.As(err, &se) {
			cc.errorAt(ref, "%v", err)
			return nil
		}
		if len(cc.stack) > 0 {
			cc.errorAt(ref, "%d:%d: %s", se.Line, se.Column, se.Message)
		} else {
			cc.report(expr.Position{Line: se.Line, Column: se.Column}, se.Message)
		}
		return nil
	}
	return cc.compileQuery(ast, ref)
}

func (cc *compilation) compileQuery(ast querylang.Query, ref expr.Position) *query.Query {
	switch n := ast.(type) {
	case *querylang.SetOp:
		left := cc.compileQuery(n.Left, ref)
		right := cc.compileQuery(n.Right, ref)
		if left == nil || right == nil {
			return nil
		}
		switch n.Op {
		case querylang.Union:
			return left.Union(right)
		case querylang.Intersect:
			return left.Intersect(right)
		default:
			return left.Except(right)
		}

	case *querylang.ViewRef:
		return cc.expandView(n.Name, cc.at(n.Position, ref))

	case *querylang.Select:
		return cc.compileSelect(n, ref)
	}
	panic(fmt.Sprintf("compiler: unexpected query node %T", ast))
}

// at returns the position errors of the current text are reported at.
func (cc *compilation) at(pos, ref expr.Position) expr.Position {
	if len(cc.stack) > 0 {
		return ref
	}
	return pos
}

func (cc *compilation) compileSelect(sel *querylang.Select, ref expr.Position) *query.Query {
	var q *query.Query
	if sel.Source.IsView() {
		q = cc.expandView(sel.Source.View, cc.at(sel.Source.Position, ref))
	} else {
		var err error
		q, err = cc.factory.CreateQuery(cc.ctx, sel.Source.Pattern)
		if err != nil {
			cc.errorAt(cc.at(sel.Source.Position, ref), "%v", err)
			return nil
		}
	}

	var where expr.Node
	if sel.Where != nil {
		where = cc.prepare(sel.Where, ref)
	}
	sink := cc.sinkFor(ref)
	keys := make([]query.Key, 0, len(sel.OrderBy))
	for _, k := range sel.OrderBy {
		n := cc.prepare(k.Expr, ref)
		if n == nil {
			continue
		}
		keys = append(keys, query.Key{
			Extract:    expr.Compile(n, cc.runtime, sink),
			Descending: k.Descending,
		})
	}
	if q == nil || cc.errors > 0 {
		return nil
	}

	if where != nil {
		q = q.Where(query.Predicate(expr.CompilePredicate(where, cc.runtime, sink))).WithMetrics(cc.metrics)
	}
	if len(keys) > 0 {
		q = q.WithComparer(query.KeyComparer(keys...))
	}
	return q.WithText(sel.String())
}

func (cc *compilation) expandView(name string, pos expr.Position) *query.Query {
	if i := slices.Index(cc.stack, name); i >= 0 {
		cycle := append(slices.Clone(cc.stack[i:]), name)
		cc.report(pos, "cyclic view reference "+strings.Join(quoteNames(cycle), " -> "))
		return nil
	}
	if cc.views == nil {
		cc.errorAt(pos, "unknown view %s", expr.QuoteName(name))
		return nil
	}
	text, ok := cc.views.Lookup(name)
	if !ok {
		cc.errorAt(pos, "unknown view %s", expr.QuoteName(name))
		return nil
	}

	cc.stack = append(cc.stack, name)
	defer func() { cc.stack = cc.stack[:len(cc.stack)-1] }()
	return cc.compileText(text, pos)
}

func quoteNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = expr.QuoteName(n)
	}
	return out
}

// prepare checks n statically and folds it. It returns nil after reporting
// errors.
func (cc *compilation) prepare(n expr.Node, ref expr.Position) expr.Node {
	before := cc.errors
	cc.check(n, ref)
	if cc.errors > before {
		return nil
	}
	return expr.Fold(n, cc.runtime)
}
