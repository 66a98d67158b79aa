package entity

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/value"
)

func TestNewKeepsLastDuplicate(t *testing.T) {
	e := New("a.jpg",
		NewAttribute("rating", value.NewInteger(1), SourceCustom),
		NewAttribute("rating", value.NewInteger(5), SourceMetadata),
	)

	assert.Equal(t, 1, e.Len())
	attr, ok := e.Attribute("rating")
	require.True(t, ok)
	assert.True(t, value.Equal(value.NewInteger(5), attr.Value))
	assert.Equal(t, SourceMetadata, attr.Source)
}

func TestAttributeNamesAreCaseSensitive(t *testing.T) {
	e := New("a.jpg", NewAttribute("Tag", value.NewString("x"), SourceCustom))

	_, ok := e.Attribute("tag")
	assert.False(t, ok)
	_, ok = e.Attribute("Tag")
	assert.True(t, ok)
}

func TestValueOfMissingAttributeIsNullInteger(t *testing.T) {
	e := New("a.jpg")

	v := e.Value("missing")
	assert.True(t, v.IsNull())
	assert.Equal(t, value.TypeInteger, v.Type())
}

func TestSetAttributeReturnsNewEntity(t *testing.T) {
	original := New("a.jpg", NewAttribute("a", value.NewInteger(1), SourceCustom))

	updated := original.SetAttribute(NewAttribute("a", value.NewInteger(2), SourceCustom))
	added := updated.SetAttribute(NewAttribute("b", value.NewString("x"), SourceCustom))

	assert.True(t, value.Equal(value.NewInteger(1), original.Value("a")), "original untouched")
	assert.True(t, value.Equal(value.NewInteger(2), updated.Value("a")))
	assert.Equal(t, 1, updated.Len())
	assert.Equal(t, 2, added.Len())
	assert.Equal(t, "a.jpg", added.Path())
}

func TestRemoveAttribute(t *testing.T) {
	e := New("a.jpg",
		NewAttribute("a", value.NewInteger(1), SourceCustom),
		NewAttribute("b", value.NewInteger(2), SourceCustom),
	)

	removed := e.RemoveAttribute("a")
	assert.Equal(t, 1, removed.Len())
	assert.Equal(t, 2, e.Len(), "original untouched")
	assert.Same(t, e, e.RemoveAttribute("missing"))
}

func TestAttributesIterateInNameOrder(t *testing.T) {
	e := New("a.jpg",
		NewAttribute("zeta", value.NewInteger(1), SourceCustom),
		NewAttribute("Alpha", value.NewInteger(2), SourceCustom),
		NewAttribute("beta", value.NewInteger(3), SourceCustom),
	)

	var names []string
	for a := range e.Attributes() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names)
	assert.True(t, slices.IsSorted(names))
}

func TestParseSource(t *testing.T) {
	for _, s := range []Source{SourceCustom, SourceMetadata, SourceFile} {
		parsed, err := ParseSource(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseSource("exif")
	assert.Error(t, err)
}
