package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValidQuery(t *testing.T) {
	res := execute(t, createTestFs(t), "", "check", `SELECT big WHERE FileSize > 1 ORDER BY FileName`)
	require.NoError(t, res.Err)
	assert.Equal(t, "✓ query is valid\n", res.Stdout)
}

func TestCheckValidQueryJSON(t *testing.T) {
	res := execute(t, createTestFs(t), "", "--format", "json", "check", `SELECT "**"`)
	require.NoError(t, res.Err)

	var result CheckResult
	resp := decodeResponse(t, res.Stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
}

func TestCheckUnknownView(t *testing.T) {
	res := execute(t, createTestFs(t), "", "check", `SELECT nope`)
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "error: 1:8:")
	assert.Contains(t, res.Stderr, "nope")
}

func TestCheckDoesNotReadFiles(t *testing.T) {
	fsys := createTestFs(t)
	require.NoError(t, fsys.RemoveAll("/lib"))

	res := execute(t, fsys, "", "check", `SELECT "photos/**" WHERE rating > 3`)
	require.NoError(t, res.Err)
}

func TestCheckReportsEveryError(t *testing.T) {
	res := execute(t, createTestFs(t), "", "--format", "json", "check", `SELECT "a" WHERE nope(1) OR zilch(2)`)
	require.Error(t, res.Err)

	resp := decodeResponse(t, res.Stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
	assert.Equal(t, "query has 2 error(s)", resp.Error.Message)
}
