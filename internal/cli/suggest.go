package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/suggest"
)

// SuggestOptions holds flags for the suggest command.
type SuggestOptions struct {
	*RootOptions
	Caret    int
	Limit    int
	Entities string
	Catalogs []string
}

// SuggestResult is the JSON payload of the suggest command.
type SuggestResult struct {
	Caret       int                  `json:"caret"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuggestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "List completions at a position in a query",
		Long: `List ranked completions for the query text at --caret, a byte offset.
Without --caret the end of the text is used.

Example:
  vql suggest 'SELECT "photos" WHERE ra'
  vql suggest --caret 7 'SELECT  WHERE rating > 3'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Caret, "caret", -1, "caret byte offset (default: end of text)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of suggestions (overrides suggest.limit)")
	cmd.Flags().StringVar(&opts.Entities, "entities", "", "YAML entity fixture to take attribute names from")
	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "CUE view catalog (repeatable)")

	return cmd
}

func runSuggest(opts *SuggestOptions, text string, cmd *cobra.Command) error {
	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	repo, _, err := env.views(opts.Catalogs)
	if err != nil {
		return err
	}
	_, names, err := env.entities(opts.Entities)
	if err != nil {
		return err
	}

	caret := opts.Caret
	if caret < 0 || caret > len(text) {
		caret = len(text)
	}
	limit := env.cfg.Suggest.Limit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	engine := suggest.New(suggest.Options{Limit: limit, Logger: env.logger, Metrics: env.metrics},
		suggest.Keywords{},
		suggest.Attributes{Names: names},
		suggest.Views{Views: repo},
		suggest.Functions{Registry: env.runtime.Registry()},
	)

	ctx, stop := signalContext(cmd)
	defer stop()

	list, err := engine.Suggest(ctx, text, caret)
	if err != nil {
		if errors.Is(err, suggest.ErrCancelled) {
			env.out.Notice("suggestion interrupted")
			return NewInterrupted("suggestion interrupted", err)
		}
		_ = env.out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "suggestion failed", err)
	}

	if opts.Format == "json" {
		if list == nil {
			list = []suggest.Suggestion{}
		}
		return env.out.Success(SuggestResult{Caret: caret, Suggestions: list})
	}
	for _, s := range list {
		category := string(s.Category)
		if s.Category == suggest.CategoryNone {
			category = "-"
		}
		applied, _ := s.Apply(text)
		fmt.Fprintf(env.out.Writer, "%-10s %-20s %s\n", category, s.Name, applied)
	}
	return nil
}
