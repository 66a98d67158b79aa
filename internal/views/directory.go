package views

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// Extension is the file extension of view files.
const Extension = ".vql"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadError is a view file that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load view %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Directory is a directory of .vql files, one view per file.
type Directory struct {
	fs   afero.Fs
	root string
}

// NewDirectory returns the view directory root on fs.
func NewDirectory(fs afero.Fs, root string) *Directory {
	return &Directory{fs: fs, root: root}
}

// Root returns the directory path.
func (d *Directory) Root() string {
	return d.root
}

// Path returns the file path of the view called name.
func (d *Directory) Path(name string) string {
	return filepath.Join(d.root, name+Extension)
}

// Load reads every view file. A missing directory holds no views. Files that
// fail to load are skipped and reported together in the returned error; the
// views that did load are returned regardless.
func (d *Directory) Load() ([]View, error) {
	entries, err := afero.ReadDir(d.fs, d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read view directory %s: %w", d.root, err)
	}

	var (
		views []View
		errs  []error
	)
	for _, fi := range entries {
		if fi.IsDir() || !strings.EqualFold(filepath.Ext(fi.Name()), Extension) {
			continue
		}
		path := filepath.Join(d.root, fi.Name())
		v, err := d.load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		views = append(views, v)
	}
	slices.SortFunc(views, func(a, b View) int { return strings.Compare(a.Name, b.Name) })
	return views, errors.Join(errs...)
}

func (d *Directory) load(path string) (View, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := ValidateName(name); err != nil {
		return View{}, &LoadError{Path: path, Err: err}
	}
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return View{}, &LoadError{Path: path, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return View{}, &LoadError{Path: path, Err: errors.New("file is not valid UTF-8")}
	}
	return View{
		Name:   name,
		Text:   strings.TrimSpace(string(data)),
		Origin: path,
	}, nil
}

// Save writes v to its file, creating the directory if needed.
func (d *Directory) Save(v View) error {
	if err := ValidateName(v.Name); err != nil {
		return err
	}
	if err := d.fs.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create view directory: %w", err)
	}
	if err := afero.WriteFile(d.fs, d.Path(v.Name), []byte(v.Text+"\n"), 0o644); err != nil {
		return fmt.Errorf("save view %s: %w", v.Name, err)
	}
	return nil
}

// Delete removes the file of the view called name.
func (d *Directory) Delete(name string) error {
	if err := d.fs.Remove(d.Path(name)); err != nil {
		return fmt.Errorf("delete view %s: %w", name, err)
	}
	return nil
}

// Reload loads the directory into repo, replacing its content. Views that
// fail to load are left out and their errors returned.
func (d *Directory) Reload(repo *Repository) error {
	views, loadErr := d.Load()
	if views == nil && loadErr != nil && !hasLoadErrors(loadErr) {
		return loadErr
	}
	if err := repo.Replace(views); err != nil {
		return err
	}
	return loadErr
}

func hasLoadErrors(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
