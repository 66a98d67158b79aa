package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testFixture = `
- path: a.jpg
  attributes: {rating: 5, title: Beach}
- path: b.jpg
  attributes: {rating: 2}
- path: photos/c.jpg
  attributes: {rating: 4}
- path: photos/d.png
`

// createTestFs builds a file tree under /lib, a view directory under
// /views and an entity fixture at /fixture.yaml.
func createTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/lib/a.jpg":        "aaaa",
		"/lib/b.jpg":        "bb",
		"/lib/photos/c.jpg": "cccccc",
		"/lib/photos/d.png": "d",
		"/views/big.vql":    `SELECT "**" WHERE FileSize >= 4`,
		"/fixture.yaml":     testFixture,
	}
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
		require.NoError(t, fsys.Chtimes(name, mtime, mtime))
	}
	return fsys
}

type execResult struct {
	Stdout string
	Stderr string
	Err    error
}

// execute runs the root command against fsys. The views, root and database
// flags point into fsys and a per-test directory so that nothing outside
// the test is read.
func execute(t *testing.T, fsys afero.Fs, db string, args ...string) execResult {
	t.Helper()
	t.Setenv("VQL_COLOR", "never")
	if db == "" {
		db = filepath.Join(t.TempDir(), "attributes.db")
	}
	cmd := newRootCommand(&RootOptions{Fs: fsys})
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(args, "--views=/views", "--root=/lib", "--db="+db))
	err := cmd.Execute()
	return execResult{Stdout: out.String(), Stderr: errOut.String(), Err: err}
}

// decodeResponse decodes a JSON response with its payload decoded into data.
func decodeResponse(t *testing.T, raw string, data any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.CLIResponse
}
