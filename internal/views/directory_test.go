package views

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/views/photos.vql", []byte("\xEF\xBB\xBFSELECT \"*.jpg\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/views/my view.VQL", []byte("photos"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/views/notes.txt", []byte("ignored"), 0o644))
	require.NoError(t, fs.MkdirAll("/views/sub.vql", 0o755))

	views, err := NewDirectory(fs, "/views").Load()
	require.NoError(t, err)

	assert.Equal(t, []View{
		{Name: "my view", Text: "photos", Origin: "/views/my view.VQL"},
		{Name: "photos", Text: `SELECT "*.jpg"`, Origin: "/views/photos.vql"},
	}, views)
}

func TestDirectoryLoadMissing(t *testing.T) {
	views, err := NewDirectory(afero.NewMemMapFs(), "/nowhere").Load()
	assert.NoError(t, err)
	assert.Empty(t, views)
}

func TestDirectoryLoadReportsBadFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/v/good.vql", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/v/bad.vql", []byte{0xff, 0xfe}, 0o644))

	views, err := NewDirectory(fs, "/v").Load()
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/v/bad.vql", le.Path)
	require.Len(t, views, 1)
	assert.Equal(t, "good", views[0].Name)
}

func TestDirectorySaveDeleteReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := NewDirectory(fs, "/v")
	repo, err := NewRepository(View{Name: "stale"})
	require.NoError(t, err)

	require.NoError(t, dir.Save(View{Name: "a", Text: `SELECT "a"`}))
	require.NoError(t, dir.Save(View{Name: "b", Text: `SELECT "b"`}))
	require.NoError(t, dir.Delete("b"))
	assert.Error(t, dir.Delete("b"))

	data, err := afero.ReadFile(fs, "/v/a.vql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT \"a\"\n", string(data))

	require.NoError(t, dir.Reload(repo))
	assert.Equal(t, []string{"a"}, repo.Names())
	text, _ := repo.Lookup("a")
	assert.Equal(t, `SELECT "a"`, text)
}

func TestDirectoryReloadMissingDirectoryEmptiesRepository(t *testing.T) {
	repo, err := NewRepository(View{Name: "old"})
	require.NoError(t, err)

	require.NoError(t, NewDirectory(afero.NewMemMapFs(), "/missing").Reload(repo))
	assert.Zero(t, repo.Len())
}

func TestDirectorySaveOnReadOnlyFs(t *testing.T) {
	dir := NewDirectory(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/v")
	assert.Error(t, dir.Save(View{Name: "x"}))
	assert.ErrorIs(t, dir.Save(View{Name: ""}), ErrInvalidName)
}
