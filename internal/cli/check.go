package cli

import (
	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/compiler"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Catalogs []string
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Valid  bool             `json:"valid"`
	Errors []compiler.Error `json:"errors,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <query>",
		Short: "Compile a query without running it",
		Long: `Compile a query and report syntax, view and type errors without
reading any files. Faster than run for editor feedback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "CUE view catalog (repeatable)")

	return cmd
}

func runCheck(opts *CheckOptions, text string, cmd *cobra.Command) error {
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

	diags := &compiler.Collector{}
	if env.compiler(factory, repo).Compile(cmd.Context(), text, diags) == nil {
		return compileFailed(env.out, text, diags.CompileErrors())
	}

	if opts.Format == "json" {
		return env.out.Success(CheckResult{Valid: true})
	}
	env.out.Check("query is valid")
	return nil
}
