package cli

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	ViewsDir   string
	Database   string
	Root       string

	// Fs holds the config, views, fixtures and files queries select. Nil
	// means the operating system. The attribute database is always on disk.
	Fs afero.Fs

	// Registry receives query metrics. Nil means a fresh registry per
	// command.
	Registry *prometheus.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vql",
		Short: "vql - query files by their attributes",
		Long: `Query files and their attributes with a small SQL-like language.

A query selects files by path pattern, filters them with WHERE, and sorts
them with ORDER BY. Named queries (views) can be referenced from other
queries and combined with UNION, INTERSECT and EXCEPT.

Example:
  vql run 'SELECT "photos/**" WHERE rating >= 4 ORDER BY LastWriteTime DESC'`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./vql.yaml or ~/.config/vql/vql.yaml)")
	cmd.PersistentFlags().StringVar(&opts.ViewsDir, "views", "", "view directory (overrides views_dir)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "attribute database (overrides database)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "directory path patterns are relative to (overrides root)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewViewsCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
