package cli

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/views"
)

func TestViewsList(t *testing.T) {
	fsys := createTestFs(t)
	require.NoError(t, afero.WriteFile(fsys, "/views/all.vql", []byte(`SELECT "**"`), 0o644))

	res := execute(t, fsys, "", "views", "list")
	require.NoError(t, res.Err)
	assert.Equal(t, "all\nbig\n", res.Stdout)
}

func TestViewsListJSON(t *testing.T) {
	res := execute(t, createTestFs(t), "", "--format", "json", "views", "list")
	require.NoError(t, res.Err)

	var list []views.View
	decodeResponse(t, res.Stdout, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "big", list[0].Name)
	assert.Equal(t, `SELECT "**" WHERE FileSize >= 4`, list[0].Text)
	assert.Equal(t, "/views/big.vql", list[0].Origin)
}

func TestViewsListEmptyDirectory(t *testing.T) {
	res := execute(t, afero.NewMemMapFs(), "", "--format", "json", "views", "list")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, `"data":[]`)
}

func TestViewsListSkipsBadFiles(t *testing.T) {
	fsys := createTestFs(t)
	require.NoError(t, afero.WriteFile(fsys, "/views/bad.vql", []byte{0xff, 0xfe}, 0o644))

	res := execute(t, fsys, "", "views", "list")
	require.NoError(t, res.Err)
	assert.Equal(t, "big\n", res.Stdout)
	assert.Contains(t, res.Stderr, "warning:")
	assert.Contains(t, res.Stderr, "bad.vql")
}

func TestViewsShow(t *testing.T) {
	res := execute(t, createTestFs(t), "", "views", "show", "big")
	require.NoError(t, res.Err)
	assert.Equal(t, "SELECT \"**\" WHERE FileSize >= 4\n", res.Stdout)

	res = execute(t, createTestFs(t), "", "views", "show", "nope")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.Contains(t, res.Stdout, "view not found: nope")
}

func TestViewsShowFromCatalog(t *testing.T) {
	fsys := createTestFs(t)
	catalog := `view: tiny: {
	query:       "SELECT \"**\" WHERE FileSize < 2"
	description: "Nearly empty files"
}
`
	require.NoError(t, afero.WriteFile(fsys, "/catalog.cue", []byte(catalog), 0o644))

	res := execute(t, fsys, "", "--format", "json", "views", "show", "--catalog=/catalog.cue", "tiny")
	require.NoError(t, res.Err)

	var v views.View
	decodeResponse(t, res.Stdout, &v)
	assert.Equal(t, "Nearly empty files", v.Description)

	res = execute(t, fsys, "", "views", "list", "--catalog=/catalog.cue")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "tiny")
	assert.Contains(t, res.Stdout, "Nearly empty files")
}

func TestViewsSaveAndDelete(t *testing.T) {
	fsys := createTestFs(t)

	res := execute(t, fsys, "", "views", "save", "pngs", `SELECT "**" WHERE Extension = "png"`)
	require.NoError(t, res.Err)
	data, err := afero.ReadFile(fsys, "/views/pngs.vql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT \"**\" WHERE Extension = \"png\"\n", string(data))

	res = execute(t, fsys, "", "run", `SELECT pngs`)
	require.NoError(t, res.Err)
	assert.Equal(t, "photos/d.png\n", res.Stdout)

	res = execute(t, fsys, "", "views", "delete", "pngs")
	require.NoError(t, res.Err)
	exists, err := afero.Exists(fsys, "/views/pngs.vql")
	require.NoError(t, err)
	assert.False(t, exists)

	res = execute(t, fsys, "", "views", "delete", "pngs")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
}

func TestViewsSaveRejectsInvalidName(t *testing.T) {
	res := execute(t, createTestFs(t), "", "views", "save", "bad`name", `SELECT "a"`)
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
}

func TestViewsCheckValid(t *testing.T) {
	res := execute(t, createTestFs(t), "", "views", "check")
	require.NoError(t, res.Err)
	assert.Equal(t, "✓ all 1 views valid\n", res.Stdout)
}

func TestViewsCheckCycle(t *testing.T) {
	fsys := createTestFs(t)
	require.NoError(t, afero.WriteFile(fsys, "/views/a.vql", []byte(`SELECT b`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/views/b.vql", []byte(`SELECT a WHERE FileSize > 1`), 0o644))

	res := execute(t, fsys, "", "--format", "json", "views", "check")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))

	resp := decodeResponse(t, res.Stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeViewCycle, resp.Error.Code)
	assert.Equal(t, "1 view cycle(s)", resp.Error.Message)

	res = execute(t, fsys, "", "views", "check")
	require.Error(t, res.Err)
	assert.Contains(t, res.Stderr, "cyclic view reference")
}

func TestViewsCheckMissingAndBroken(t *testing.T) {
	fsys := createTestFs(t)
	require.NoError(t, afero.WriteFile(fsys, "/views/lost.vql", []byte(`SELECT gone`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/views/broken.vql", []byte(`SELECT "x" WHERE`), 0o644))

	res := execute(t, fsys, "", "views", "check")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "error in view broken: 1:17: unexpected end of input, expected expression")
	assert.Contains(t, res.Stderr, "error in view lost: 1:8: unknown view gone")
	assert.Contains(t, res.Stderr, "warning: view lost references unknown view(s) gone")
	assert.NotContains(t, res.Stdout, "✓")
}
