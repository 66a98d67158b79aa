package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/compiler"
	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/query"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Entities   string
	Catalogs   []string
	Attributes bool
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Query         string           `json:"query"`
	Count         int              `json:"count"`
	Entities      []EntityResult   `json:"entities"`
	RuntimeErrors []compiler.Error `json:"runtime_errors,omitempty"`
	Interrupted   bool             `json:"interrupted,omitempty"`
}

// EntityResult is one entity of a result.
type EntityResult struct {
	Path       string            `json:"path"`
	Attributes []AttributeResult `json:"attributes,omitempty"`
}

// AttributeResult is one attribute in its display form.
type AttributeResult struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"`
	Value  string `json:"value"`
	Null   bool   `json:"null,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Compile a query and list the entities it selects",
		Long: `Compile a query and enumerate its result.

Entities are the files under --root, with attributes from the database merged
over the file attributes. With --entities, a YAML fixture is used instead.

Example:
  vql run 'SELECT "photos" WHERE Extension = "jpg"'
  vql run --entities ./fixture.yaml --format json 'SELECT "**" ORDER BY rating DESC'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entities, "entities", "", "YAML entity fixture to query instead of the file system")
	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "CUE view catalog (repeatable)")
	cmd.Flags().BoolVarP(&opts.Attributes, "attributes", "a", false, "print attributes of each entity")

	return cmd
}

func runQuery(opts *RunOptions, text string, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, _, err := env.views(opts.Catalogs)
	if err != nil {
		return err
	}
	factory, _, err := env.entities(opts.Entities)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	diags := &compiler.Collector{}
	q := env.compiler(factory, repo).Compile(ctx, text, diags)
	if q == nil {
		return compileFailed(env.out, text, diags.CompileErrors())
	}

	result := RunResult{Query: text, Entities: []EntityResult{}}
	for e, err := range q.Entities(ctx) {
		if err != nil {
			if errors.Is(err, query.ErrCancelled) {
				return interrupted(env, result, diags.RuntimeErrors(), err)
			}
			env.out.Diagnostics("runtime error", text, diags.RuntimeErrors())
			_ = env.out.Error(ErrCodeRuntime, err.Error(), nil)
			return WrapExitError(ExitFailure, "enumeration failed", err)
		}
		result.Count++
		if opts.Format == "json" {
			result.Entities = append(result.Entities, entityResult(e, true))
			continue
		}
		printEntity(env.out, e, opts.Attributes)
	}
	result.RuntimeErrors = diags.RuntimeErrors()
	env.logger.Debug("query finished", "count", result.Count, "runtime_errors", len(result.RuntimeErrors))

	if opts.Format == "json" {
		return env.out.Success(result)
	}
	env.out.Diagnostics("runtime error", text, result.RuntimeErrors)
	env.out.VerboseLog("%d entities", result.Count)
	return nil
}

func compileFailed(out *OutputFormatter, text string, errs []compiler.Error) error {
	out.Diagnostics("error", text, errs)
	_ = out.Error(ErrCodeCompile, fmt.Sprintf("query has %d error(s)", len(errs)), errs)
	return NewExitError(ExitFailure, fmt.Sprintf("query has %d error(s)", len(errs)))
}

func entityResult(e *entity.Entity, attrs bool) EntityResult {
	r := EntityResult{Path: e.Path()}
	if !attrs {
		return r
	}
	for a := range e.Attributes() {
		r.Attributes = append(r.Attributes, AttributeResult{
			Name:   a.Name,
			Type:   a.Value.Type().String(),
			Source: a.Source.String(),
			Value:  a.Value.String(),
			Null:   a.Value.IsNull(),
		})
	}
	return r
}

func printEntity(out *OutputFormatter, e *entity.Entity, attrs bool) {
	fmt.Fprintln(out.Writer, e.Path())
	if !attrs {
		return
	}
	for _, a := range entityResult(e, true).Attributes {
		fmt.Fprintf(out.Writer, "  %s = %s (%s, %s)\n", a.Name, a.Value, strings.ToLower(a.Type), a.Source)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// interrupted reports the entities printed before the query was cancelled.
// JSON output still gets the partial result.
func interrupted(env *environment, result RunResult, errs []compiler.Error, err error) error {
	env.out.Diagnostics("runtime error", result.Query, errs)
	env.logger.Debug("query interrupted", "count", result.Count)
	if env.out.Format == "json" {
		result.RuntimeErrors = errs
		result.Interrupted = true
		if err := env.out.Success(result); err != nil {
			return err
		}
	}
	env.out.Notice("query interrupted after %d entities", result.Count)
	return NewInterrupted("query interrupted", err)
}
