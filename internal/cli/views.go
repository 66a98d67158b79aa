package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/compiler"
	"github.com/trylock/viewer-sub002/internal/views"
)

// ViewsOptions holds flags shared by the views subcommands.
type ViewsOptions struct {
	*RootOptions
	Catalogs []string
}

// ViewProblem is one invalid view.
type ViewProblem struct {
	View    string           `json:"view,omitempty"`
	Message string           `json:"message,omitempty"`
	Errors  []compiler.Error `json:"errors,omitempty"`
}

// ViewsCheckResult is the JSON payload of views check.
type ViewsCheckResult struct {
	Valid    bool                 `json:"valid"`
	Views    int                  `json:"views"`
	Problems []ViewProblem        `json:"problems,omitempty"`
	Cycles   []views.CycleWarning `json:"cycles,omitempty"`
	Missing  map[string][]string  `json:"missing,omitempty"`
}

// NewViewsCommand creates the views command group.
func NewViewsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage named queries",
		Long: `Views are named queries stored one per file (<name>.vql) in the view
directory, or declared in CUE catalogs under the top-level "view" struct.
A query references a view by name in its FROM position.`,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.Catalogs, "catalog", nil, "CUE view catalog (repeatable)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsList(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print the query of a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsShow(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Compile every view and report cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsCheck(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "save <name> <query>",
		Short: "Create or replace a view file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsSave(opts, args[0], args[1], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a view file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsDelete(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print view changes as files in the view directory change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsWatch(opts, cmd)
		},
	})

	return cmd
}

func runViewsList(opts *ViewsOptions, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, _, err := env.views(opts.Catalogs)
	if err != nil {
		return err
	}
	all := repo.All()
	if opts.Format == "json" {
		if all == nil {
			all = []views.View{}
		}
		return env.out.Success(all)
	}
	for _, v := range all {
		if v.Description != "" {
			fmt.Fprintf(env.out.Writer, "%-20s %s\n", v.Name, v.Description)
			continue
		}
		fmt.Fprintln(env.out.Writer, v.Name)
	}
	env.out.VerboseLog("%d views in %s", len(all), env.cfg.ViewsDir)
	return nil
}

func runViewsShow(opts *ViewsOptions, name string, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, _, err := env.views(opts.Catalogs)
	if err != nil {
		return err
	}
	v, ok := repo.Find(name)
	if !ok {
		msg := fmt.Sprintf("view not found: %s", name)
		_ = env.out.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.Format == "json" {
		return env.out.Success(v)
	}
	return env.out.Success(v.Text)
}

func runViewsCheck(opts *ViewsOptions, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, _, err := env.views(opts.Catalogs)
	if err != nil {
		return err
	}
	factory, _, err := env.entities("")
	if err != nil {
		return err
	}

	all := repo.All()
	result := ViewsCheckResult{Views: len(all)}
	if env.viewsErr != nil {
		for _, line := range strings.Split(env.viewsErr.Error(), "\n") {
			result.Problems = append(result.Problems, ViewProblem{Message: line})
		}
	}

	c := env.compiler(factory, repo)
	for _, v := range all {
		diags := &compiler.Collector{}
		if c.Compile(cmd.Context(), v.Text, diags) == nil {
			result.Problems = append(result.Problems, ViewProblem{View: v.Name, Errors: diags.CompileErrors()})
			env.out.Diagnostics("error in view "+v.Name, v.Text, diags.CompileErrors())
		}
	}

	analysis := views.AnalyzeCycles(all)
	result.Cycles = analysis.Cycles
	result.Missing = analysis.Missing
	result.Valid = len(result.Problems) == 0 && len(result.Cycles) == 0 && len(result.Missing) == 0

	code, msg := "", ""
	switch {
	case len(result.Cycles) > 0:
		code, msg = ErrCodeViewCycle, fmt.Sprintf("%d view cycle(s)", len(result.Cycles))
	case !result.Valid:
		code, msg = ErrCodeViewInvalid, "invalid views"
	}

	if opts.Format == "json" {
		if result.Valid {
			return env.out.Success(result)
		}
		_ = env.out.Error(code, msg, result)
		return NewExitError(ExitFailure, msg)
	}

	for _, cw := range result.Cycles {
		env.out.Warn("%s", cw.Message)
	}
	for _, name := range slices.Sorted(maps.Keys(result.Missing)) {
		env.out.Warn("view %s references unknown view(s) %s", name, strings.Join(result.Missing[name], ", "))
	}
	if !result.Valid {
		return NewExitError(ExitFailure, msg)
	}
	env.out.Check(fmt.Sprintf("all %d views valid", result.Views))
	return nil
}

func runViewsSave(opts *ViewsOptions, name, text string, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	_, dir, err := env.views(nil)
	if err != nil {
		return err
	}
	if err := dir.Save(views.View{Name: name, Text: text}); err != nil {
		_ = env.out.Error(ErrCodeViewInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to save view", err)
	}
	env.logger.Info("view saved", "name", name, "path", dir.Path(name))
	if opts.Format == "json" {
		return env.out.Success(map[string]string{"name": name, "path": dir.Path(name)})
	}
	env.out.Check("saved " + dir.Path(name))
	return nil
}

func runViewsDelete(opts *ViewsOptions, name string, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, dir, err := env.views(nil)
	if err != nil {
		return err
	}
	if _, ok := repo.Find(name); !ok {
		msg := fmt.Sprintf("view not found: %s", name)
		_ = env.out.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err := dir.Delete(name); err != nil {
		_ = env.out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to delete view", err)
	}
	env.logger.Info("view deleted", "name", name)
	if opts.Format == "json" {
		return env.out.Success(map[string]string{"name": name})
	}
	env.out.Check("deleted " + name)
	return nil
}

func runViewsWatch(opts *ViewsOptions, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, dir, err := env.views(nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(env.out.Writer)
	unsubscribe := repo.Subscribe(func(c views.Change) {
		if opts.Format == "json" {
			_ = enc.Encode(map[string]string{"kind": c.Kind.String(), "name": c.Name})
			return
		}
		fmt.Fprintf(env.out.Writer, "%s %s\n", c.Kind, c.Name)
	})
	defer unsubscribe()

	w := views.NewWatcher(dir, repo, 0, env.logger)
	w.OnReload = func(err error) {
		if err != nil {
			env.out.Warn("%v", err)
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	if err := w.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch views", err)
	}
	return nil
}
