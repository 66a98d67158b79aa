package cli

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/trylock/viewer-sub002/internal/compiler"
	"github.com/trylock/viewer-sub002/internal/config"
	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/functions"
	"github.com/trylock/viewer-sub002/internal/metrics"
	"github.com/trylock/viewer-sub002/internal/source"
	"github.com/trylock/viewer-sub002/internal/store"
	"github.com/trylock/viewer-sub002/internal/suggest"
	"github.com/trylock/viewer-sub002/internal/views"
)

// environment is the wiring shared by all commands: configuration, logging,
// metrics, views and, when needed, the attribute store.
type environment struct {
	opts     *RootOptions
	fs       afero.Fs
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	out      *OutputFormatter
	runtime  *functions.Runtime
	store    *store.Store // nil until opened

	// viewsErr holds the view files that failed to load.
	viewsErr error
}

func newEnvironment(opts *RootOptions, cmd *cobra.Command) (*environment, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	cfg, err := config.Load(fsys, opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg.ViewsDir = cmp.Or(opts.ViewsDir, cfg.ViewsDir)
	cfg.Database = cmp.Or(opts.Database, cfg.Database)
	cfg.Root = cmp.Or(opts.Root, cfg.Root)

	level, err := cfg.Level()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	env := &environment{
		opts:     opts,
		fs:       fsys,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
		runtime:  functions.NewRuntime(functions.NewBuiltinRegistry()),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
			Verbose:   opts.Verbose,
			Color:     useColor(cfg.Color),
		},
	}
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	return env, nil
}

func useColor(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return !color.NoColor
	}
}

// views loads the view directory and any CUE catalogs into a repository.
// Files that fail to load are reported as warnings and left out.
func (env *environment) views(catalogs []string) (*views.Repository, *views.Directory, error) {
	dir := views.NewDirectory(env.fs, env.cfg.ViewsDir)
	loaded, err := dir.Load()
	if err != nil {
		if len(loaded) == 0 && !hasLoadErrors(err) {
			return nil, nil, WrapExitError(ExitCommandError, "failed to read views", err)
		}
		env.viewsErr = err
		env.out.Warn("%v", err)
		env.logger.Warn("some views failed to load", "dir", dir.Root(), "error", err)
	}

	for _, name := range catalogs {
		src, err := afero.ReadFile(env.fs, name)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to read view catalog", err)
		}
		cat, err := views.LoadCatalog(name, src)
		if err != nil {
			return nil, nil, WrapExitError(ExitFailure, "invalid view catalog", err)
		}
		loaded = append(loaded, cat...)
	}

	repo, err := views.NewRepository(loaded...)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "invalid view", err)
	}
	env.logger.Debug("views loaded", "dir", dir.Root(), "count", repo.Len())
	return repo, dir, nil
}

func hasLoadErrors(err error) bool {
	var le *views.LoadError
	return errors.As(err, &le)
}

// openStore opens the attribute database. Unless create is set a missing
// database is not an error; the store stays nil.
func (env *environment) openStore(create bool) error {
	path := env.cfg.Database
	if path == "" {
		if create {
			return NewExitError(ExitCommandError, "no attribute database configured")
		}
		return nil
	}
	if path != store.Memory {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if !create {
				env.logger.Debug("no attribute database", "path", path)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return WrapExitError(ExitCommandError, "failed to create database directory", err)
			}
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	env.logger.Debug("database ready", "path", path)
	env.store = st
	return nil
}

// entities returns the query factory and the attribute names it knows.
// A fixture replaces the file system and the database.
func (env *environment) entities(fixture string) (compiler.QueryFactory, suggest.AttributeNames, error) {
	if fixture != "" {
		f, err := env.fs.Open(fixture)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open entities", err)
		}
		defer f.Close()
		list, err := entity.DecodeYAML(f)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "invalid entities", err)
		}
		env.logger.Debug("entities loaded", "file", fixture, "count", len(list))
		mem := source.NewMemory(list)
		return mem, mem, nil
	}

	if err := env.openStore(false); err != nil {
		return nil, nil, err
	}
	opts := source.Options{Root: env.cfg.Root, Logger: env.logger}
	names := attributeNames{}
	if env.store != nil {
		opts.Attributes = env.store
		names = append(names, env.store)
	}
	factory := source.NewFactory(env.fs, opts)
	return factory, append(names, factory), nil
}

func (env *environment) compiler(factory compiler.QueryFactory, repo *views.Repository) *compiler.Compiler {
	return compiler.New(env.runtime, factory, repo, compiler.Options{
		Logger:         env.logger,
		Metrics:        env.metrics,
		ParseCacheSize: env.cfg.ParseCacheSize,
	})
}

// close releases the store and logs the collected metrics.
func (env *environment) close() {
	if env.store != nil {
		if err := env.store.Close(); err != nil {
			env.logger.Error("error closing database", "error", err)
		}
	}
	env.logMetrics()
}

func (env *environment) logMetrics() {
	if !env.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := env.registry.Gather()
	if err != nil {
		env.logger.Debug("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			env.logger.Debug("metric", attrs...)
		}
	}
}

// attributeNames merges the names of several sources.
type attributeNames []suggest.AttributeNames

func (a attributeNames) AttributeNames(ctx context.Context) ([]string, error) {
	var all []string
	for _, src := range a {
		names, err := src.AttributeNames(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, names...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}
