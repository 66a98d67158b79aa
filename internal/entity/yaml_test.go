package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/value"
)

func TestDecodeYAML(t *testing.T) {
	src := `
- path: photos/beach.jpg
  attributes:
    rating: 4
    ratio: 1.5
    title: Beach
    quoted: "12"
    taken: 2019-07-14T18:30:00Z
    favorite: true
    hidden: false
    note: ~
    width: {type: Real, value: 3, source: metadata}
    missing: {type: datetime}
    thumb: {type: Image, value: {format: jpeg, width: 4, height: 3}}
- path: empty.png
`
	got, err := DecodeYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)

	e := got[0]
	assert.Equal(t, "photos/beach.jpg", e.Path())
	tests := []struct {
		name string
		want value.Value
	}{
		{"rating", value.NewInteger(4)},
		{"ratio", value.NewReal(1.5)},
		{"title", value.NewString("Beach")},
		{"quoted", value.NewString("12")},
		{"taken", value.NewDateTime(time.Date(2019, 7, 14, 18, 30, 0, 0, time.UTC))},
		{"favorite", value.True()},
		{"hidden", value.NullInteger()},
		{"note", value.NullInteger()},
		{"width", value.NewReal(3)},
		{"missing", value.Null(value.TypeDateTime)},
		{"thumb", value.NewImage(value.ImageData{Format: "jpeg", Width: 4, Height: 3})},
	}
	for _, tt := range tests {
		assert.True(t, value.Equal(tt.want, e.Value(tt.name)), "%s: got %v", tt.name, e.Value(tt.name))
	}

	width, _ := e.Attribute("width")
	assert.Equal(t, SourceMetadata, width.Source)
	rating, _ := e.Attribute("rating")
	assert.Equal(t, SourceCustom, rating.Source)

	assert.Equal(t, 0, got[1].Len())
}

func TestDecodeYAMLEmpty(t *testing.T) {
	got, err := DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"missing path":   "- attributes: {a: 1}",
		"unknown field":  "- path: a\n  attrs: {}",
		"unknown type":   "- path: a\n  attributes: {x: {type: Blob, value: 1}}",
		"bad conversion": "- path: a\n  attributes: {x: {type: Integer, value: 1.5}}",
		"sequence value": "- path: a\n  attributes: {x: [1, 2]}",
		"unknown source": "- path: a\n  attributes: {x: {type: String, value: s, source: exif}}",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeYAML(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}
