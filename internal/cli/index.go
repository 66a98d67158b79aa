package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/entity"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Delete []string
}

// IndexResult is the JSON payload of the index command.
type IndexResult struct {
	Database string `json:"database"`
	Stored   int    `json:"stored"`
	Deleted  int    `json:"deleted"`
	Total    int    `json:"total"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index [entities.yaml...]",
		Short: "Store entity attributes in the attribute database",
		Long: `Store the attributes of the entities in YAML files in the attribute
database, creating it if needed. Attributes of an entity that is already
stored are replaced. File attributes are computed from the file system and
never stored.

Example:
  vql index ./tags.yaml
  vql index --delete photos/old.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Delete, "delete", nil, "entity path to remove from the database (repeatable)")

	return cmd
}

func runIndex(opts *IndexOptions, files []string, cmd *cobra.Command) error {
	if len(files) == 0 && len(opts.Delete) == 0 {
		return NewExitError(ExitCommandError, "nothing to index: pass entity files or --delete")
	}

	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	var all []*entity.Entity
	for _, name := range files {
		f, err := env.fs.Open(name)
		if err != nil {
			_ = env.out.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open entities", err)
		}
		list, err := entity.DecodeYAML(f)
		f.Close()
		if err != nil {
			_ = env.out.Error(ErrCodeFixture, err.Error(), map[string]string{"file": name})
			return WrapExitError(ExitCommandError, "invalid entities", err)
		}
		env.out.VerboseLog("%s: %d entities", name, len(list))
		all = append(all, list...)
	}

	if err := env.openStore(true); err != nil {
		return err
	}
	ctx, stop := signalContext(cmd)
	defer stop()

	result := IndexResult{Database: env.cfg.Database}
	if err := env.store.PutAll(ctx, all); err != nil {
		_ = env.out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to store attributes", err)
	}
	result.Stored = len(all)

	for _, path := range opts.Delete {
		ok, err := env.store.Delete(ctx, path)
		if err != nil {
			_ = env.out.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to delete entity", err)
		}
		if !ok {
			env.out.Warn("%s is not in the database", path)
			continue
		}
		result.Deleted++
	}

	if result.Total, err = env.store.Len(ctx); err != nil {
		_ = env.out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to count entities", err)
	}
	env.logger.Info("attributes indexed",
		"database", result.Database,
		"stored", result.Stored,
		"deleted", result.Deleted)

	if opts.Format == "json" {
		return env.out.Success(result)
	}
	env.out.Check(fmt.Sprintf("stored %d, deleted %d, %d entities in %s",
		result.Stored, result.Deleted, result.Total, result.Database))
	return nil
}
