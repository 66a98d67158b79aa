package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/query"
	"github.com/trylock/viewer-sub002/internal/value"
)

// File attribute names.
const (
	AttrFileName      = "FileName"
	AttrExtension     = "Extension"
	AttrDirectory     = "Directory"
	AttrFileSize      = "FileSize"
	AttrLastWriteTime = "LastWriteTime"
)

// FileAttributes lists the attributes every file entity carries.
var FileAttributes = []string{AttrDirectory, AttrExtension, AttrFileName, AttrFileSize, AttrLastWriteTime}

// Attributes looks up the stored attributes of a path. The store implements
// it.
type Attributes interface {
	Get(ctx context.Context, path string) (*entity.Entity, bool, error)
}

// Factory turns path patterns into queries over files. It implements the
// compiler's query factory.
type Factory struct {
	fs     afero.Fs
	root   string
	attrs  Attributes
	logger *slog.Logger
}

// Options configures a Factory.
type Options struct {
	// Root is the directory patterns are relative to. Empty means the
	// current directory of fs.
	Root string

	// Attributes supplies stored attributes. Nil means file attributes only.
	Attributes Attributes

	Logger *slog.Logger
}

// NewFactory creates a Factory over fs.
func NewFactory(fsys afero.Fs, opts Options) *Factory {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{fs: fsys, root: opts.Root, attrs: opts.Attributes, logger: logger}
}

// CreateQuery parses pattern and returns a query over the matching files.
// The file system is read on every enumeration.
func (f *Factory) CreateQuery(_ context.Context, pattern string) (*query.Query, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return query.New(pattern, &walker{factory: f, pattern: p}), nil
}

// AttributeNames returns the file attribute names. Suggestions combine them
// with the store's names.
func (f *Factory) AttributeNames(context.Context) ([]string, error) {
	return FileAttributes, nil
}

type walker struct {
	factory *Factory
	pattern *Pattern
}

var errStop = errors.New("stop walking")

// Enumerate walks the pattern's base directory in lexical order and yields
// the regular files that match. A missing base yields nothing. A pattern
// naming a directory selects the files directly inside it.
func (w *walker) Enumerate(ctx context.Context) iter.Seq2[*entity.Entity, error] {
	return func(yield func(*entity.Entity, error) bool) {
		f := w.factory
		p := w.pattern
		if p.Literal() {
			if info, err := f.fs.Stat(f.osPath(p.String())); err == nil && info.IsDir() {
				p = p.Contents()
			}
		}

		base := p.Base()
		err := afero.Walk(f.fs, f.osPath(base), func(name string, info fs.FileInfo, err error) error {
			if ctx.Err() != nil {
				return errStop
			}
			rel := f.relPath(name)
			if err != nil {
				if rel == base && errors.Is(err, fs.ErrNotExist) {
					return errStop
				}
				return fmt.Errorf("walk %s: %w", rel, err)
			}
			if info.IsDir() {
				if rel != base && !p.MatchPrefix(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.Mode().IsRegular() || !p.Match(rel) {
				return nil
			}

			e, err := f.entity(ctx, rel, info)
			if err != nil {
				return err
			}
			if !yield(e, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			f.logger.Warn("enumeration failed", "pattern", p.String(), "error", err)
			yield(nil, err)
		}
	}
}

// entity builds the entity of the file at rel. Stored attributes replace
// file attributes of the same name.
func (f *Factory) entity(ctx context.Context, rel string, info fs.FileInfo) (*entity.Entity, error) {
	dir, name := path.Split(rel)
	e := entity.New(rel,
		entity.NewAttribute(AttrFileName, value.NewString(name), entity.SourceFile),
		entity.NewAttribute(AttrExtension, value.NewString(strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")), entity.SourceFile),
		entity.NewAttribute(AttrDirectory, value.NewString(strings.TrimSuffix(dir, "/")), entity.SourceFile),
		entity.NewAttribute(AttrFileSize, value.NewInteger(info.Size()), entity.SourceFile),
		entity.NewAttribute(AttrLastWriteTime, value.NewDateTime(info.ModTime().UTC()), entity.SourceFile),
	)
	if f.attrs == nil {
		return e, nil
	}
	stored, ok, err := f.attrs.Get(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", rel, err)
	}
	if ok {
		for a := range stored.Attributes() {
			e = e.SetAttribute(a)
		}
	}
	return e, nil
}

// osPath converts a /-separated relative path to a path in the file system.
func (f *Factory) osPath(rel string) string {
	if rel == "" {
		rel = "."
	}
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// relPath is the inverse of osPath.
func (f *Factory) relPath(name string) string {
	rel := name
	if f.root != "" {
		if r, err := filepath.Rel(f.root, name); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return ""
	}
	return rel
}

var _ query.Source = (*walker)(nil)
