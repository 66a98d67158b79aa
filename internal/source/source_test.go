package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/query"
	"github.com/trylock/viewer-sub002/internal/value"
)

var modTime = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

func newLibrary(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, "/lib/"+f, []byte(f), 0o644))
		require.NoError(t, fs.Chtimes("/lib/"+f, modTime, modTime))
	}
	return fs
}

type storedAttrs map[string]*entity.Entity

func (s storedAttrs) Get(_ context.Context, path string) (*entity.Entity, bool, error) {
	e, ok := s[path]
	return e, ok, nil
}

func newFactory(fs afero.Fs, attrs Attributes) *Factory {
	return NewFactory(fs, Options{
		Root:       "/lib",
		Attributes: attrs,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func collect(t *testing.T, f *Factory, pattern string) []*entity.Entity {
	t.Helper()
	q, err := f.CreateQuery(context.Background(), pattern)
	require.NoError(t, err)
	got, err := q.Collect(context.Background())
	require.NoError(t, err)
	return got
}

func paths(es []*entity.Entity) []string {
	out := []string{}
	for _, e := range es {
		out = append(out, e.Path())
	}
	return out
}

func TestCreateQueryMatchesFiles(t *testing.T) {
	fs := newLibrary(t,
		"a.jpg", "b.png",
		"photos/2019/x.jpg", "photos/2019/y.JPG", "photos/2020/z.jpg",
		"photos/top.jpg", "docs/readme.md",
	)
	f := newFactory(fs, nil)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.jpg", []string{"a.jpg"}},
		{"*", []string{"a.jpg", "b.png"}},
		{"photos/*/*.jpg", []string{"photos/2019/x.jpg", "photos/2020/z.jpg"}},
		{"**/*.jpg", []string{"a.jpg", "photos/2019/x.jpg", "photos/2020/z.jpg", "photos/top.jpg"}},
		{"photos/**", []string{"photos/2019/x.jpg", "photos/2019/y.JPG", "photos/2020/z.jpg", "photos/top.jpg"}},
		{"photos", []string{"photos/top.jpg"}},
		{"photos/2019/x.jpg", []string{"photos/2019/x.jpg"}},
		{"missing/*.jpg", []string{}},
		{"missing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(collect(t, f, tt.pattern)))
		})
	}
}

func TestFileAttributes(t *testing.T) {
	f := newFactory(newLibrary(t, "photos/Beach.JPG"), nil)

	got := collect(t, f, "photos/*")
	require.Len(t, got, 1)
	e := got[0]

	assert.True(t, value.Equal(value.NewString("Beach.JPG"), e.Value(AttrFileName)))
	assert.True(t, value.Equal(value.NewString("jpg"), e.Value(AttrExtension)))
	assert.True(t, value.Equal(value.NewString("photos"), e.Value(AttrDirectory)))
	assert.True(t, value.Equal(value.NewInteger(int64(len("photos/Beach.JPG"))), e.Value(AttrFileSize)))
	assert.True(t, value.Equal(value.NewDateTime(modTime), e.Value(AttrLastWriteTime)))

	attr, _ := e.Attribute(AttrFileSize)
	assert.Equal(t, entity.SourceFile, attr.Source)
}

func TestStoredAttributesWin(t *testing.T) {
	stored := storedAttrs{
		"a.jpg": entity.New("a.jpg",
			entity.NewAttribute("rating", value.NewInteger(5), entity.SourceCustom),
			entity.NewAttribute(AttrFileName, value.NewString("renamed"), entity.SourceCustom),
		),
	}
	f := newFactory(newLibrary(t, "a.jpg", "b.jpg"), stored)

	got := collect(t, f, "*.jpg")
	require.Len(t, got, 2)
	assert.True(t, value.Equal(value.NewInteger(5), got[0].Value("rating")))
	assert.True(t, value.Equal(value.NewString("renamed"), got[0].Value(AttrFileName)))
	assert.True(t, got[1].Value("rating").IsNull())
}

type failingAttrs struct{ err error }

func (f failingAttrs) Get(context.Context, string) (*entity.Entity, bool, error) {
	return nil, false, f.err
}

func TestStoreErrorStopsEnumeration(t *testing.T) {
	boom := errors.New("database is locked")
	f := newFactory(newLibrary(t, "a.jpg"), failingAttrs{boom})

	q, err := f.CreateQuery(context.Background(), "*")
	require.NoError(t, err)
	_, err = q.Collect(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestInvalidPattern(t *testing.T) {
	f := newFactory(afero.NewMemMapFs(), nil)
	_, err := f.CreateQuery(context.Background(), "[")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestEnumerationReadsFileSystemEachTime(t *testing.T) {
	fs := newLibrary(t, "a.jpg")
	f := newFactory(fs, nil)
	q, err := f.CreateQuery(context.Background(), "*.jpg")
	require.NoError(t, err)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, afero.WriteFile(fs, "/lib/b.jpg", nil, 0o644))
	n, err = q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCancelledWalk(t *testing.T) {
	f := newFactory(newLibrary(t, "a.jpg", "b.jpg", "c.jpg"), nil)
	q, err := f.CreateQuery(context.Background(), "*")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var seen int
	for _, err := range q.Entities(ctx) {
		if err != nil {
			assert.ErrorIs(t, err, query.ErrCancelled)
			break
		}
		seen++
		cancel()
	}
	assert.Equal(t, 1, seen)
}
