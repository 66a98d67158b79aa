package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	src := `
view: photos: {
	query:       "SELECT \"photos/**/*.jpg\""
	description: "all photos"
}
view: "best photos": query: "SELECT photos WHERE rating >= 4"
`
	views, err := LoadCatalog("views.cue", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []View{
		{Name: "photos", Text: `SELECT "photos/**/*.jpg"`, Description: "all photos", Origin: "views.cue"},
		{Name: "best photos", Text: "SELECT photos WHERE rating >= 4", Origin: "views.cue"},
	}, views)
}

func TestLoadCatalogWithoutViews(t *testing.T) {
	views, err := LoadCatalog("empty.cue", []byte(`other: 1`))
	assert.NoError(t, err)
	assert.Empty(t, views)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		view string
	}{
		{"syntax", `view: {`, ""},
		{"missing query", `view: a: description: "x"`, "a"},
		{"query not a string", `view: a: query: 1`, "a"},
		{"description not a string", `view: a: {query: "x", description: 2}`, "a"},
		{"backtick in name", "view: \"a`b\": query: \"x\"", "a`b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog("c.cue", []byte(tt.src))
			var ce *CatalogError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.view, ce.View)
		})
	}
}
