package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/trylock/viewer-sub002/internal/compiler"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/source"
	"github.com/trylock/viewer-sub002/internal/suggest"
	"github.com/trylock/viewer-sub002/internal/testutil"
	"github.com/trylock/viewer-sub002/internal/views"
)

// Harness is the test execution engine. It wires the query components of
// one scenario.
type Harness struct {
	compiler *compiler.Compiler
	suggest  *suggest.Engine
	logger   *slog.Logger
}

// New wires fresh components for scenario.
func New(scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	names := make([]string, 0, len(scenario.Views))
	for name := range scenario.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]views.View, len(names))
	for i, name := range names {
		defs[i] = views.View{Name: name, Text: scenario.Views[name], Origin: "scenario " + scenario.Name}
	}
	repo, err := views.NewRepository(defs...)
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}

	rt := functions.NewRuntime(functions.NewBuiltinRegistry())
	mem := source.NewMemory(scenario.Entities)

	return &Harness{
		compiler: compiler.New(rt, mem, repo, compiler.Options{Logger: logger}),
		suggest: suggest.New(suggest.Options{Limit: scenario.SuggestLimit, Logger: logger},
			suggest.Keywords{},
			suggest.Attributes{Names: mem},
			suggest.Views{Views: repo},
			suggest.Functions{Registry: rt.Registry()},
		),
		logger: logger,
	}, nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against fresh in-memory components for isolation.
// An error means the scenario could not run; failed expectations are
// reported in the result instead.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(scenario, nil)
	if err != nil {
		return nil, err
	}
	return h.Run(context.Background(), scenario.Steps)
}

// Run executes steps in order.
func (h *Harness) Run(ctx context.Context, steps []Step) (*Result, error) {
	result := NewResult()
	for i, step := range steps {
		var (
			ev  TraceEvent
			err error
		)
		switch step.Kind() {
		case StepSuggest:
			ev, err = h.runSuggest(ctx, step.Suggest)
		default:
			ev, err = h.runQuery(ctx, step.Query)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		ev.Step = i + 1
		result.Trace = append(result.Trace, ev)

		for _, msg := range checkExpect(step.Expect, ev) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", ev.Step, ev.Input, msg))
		}
		h.logger.Info("step completed", "step", ev.Step, "kind", ev.Kind)
	}
	return result, nil
}

func (h *Harness) runQuery(ctx context.Context, text string) (TraceEvent, error) {
	ev := TraceEvent{Kind: StepQuery, Input: text, Entities: []string{}}

	var rec testutil.Recorder
	if q := h.compiler.Compile(ctx, text, &rec); q != nil {
		got, err := q.Collect(ctx)
		if err != nil {
			return ev, err
		}
		for _, e := range got {
			ev.Entities = append(ev.Entities, e.Path())
		}
	}

	for _, e := range rec.Events() {
		ev.Events = append(ev.Events, e.String())
	}
	ev.compileErrors = rec.Errors(testutil.EventCompile)
	ev.runtimeErrors = rec.Errors(testutil.EventRuntime)
	return ev, nil
}

func (h *Harness) runSuggest(ctx context.Context, marked string) (TraceEvent, error) {
	ev := TraceEvent{Kind: StepSuggest, Input: marked, Suggestions: []string{}, names: []string{}}

	caret := strings.Index(marked, Caret)
	text := marked[:caret] + marked[caret+len(Caret):]
	got, err := h.suggest.Suggest(ctx, text, caret)
	if err != nil {
		return ev, err
	}
	for _, s := range got {
		ev.names = append(ev.names, s.Name)
		ev.Suggestions = append(ev.Suggestions, strings.TrimSpace(string(s.Category)+" "+s.Name))
	}
	return ev, nil
}

// checkExpect returns one message per unmet expectation.
func checkExpect(want *Expect, ev TraceEvent) []string {
	if want == nil {
		return nil
	}
	var msgs []string
	check := func(what string, want, got []string) {
		if want != nil && !slices.Equal(want, got) {
			msgs = append(msgs, fmt.Sprintf("%s: expected %q, got %q", what, want, got))
		}
	}
	check("entities", want.Entities, ev.Entities)
	check("compile errors", want.CompileErrors, ev.compileErrors)
	check("runtime errors", want.RuntimeErrors, ev.runtimeErrors)
	check("suggestions", want.Suggestions, ev.names)
	return msgs
}
