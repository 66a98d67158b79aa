// Package entity provides the immutable attribute bags that queries filter
// and sort.
//
// An Entity is identified by its path. It owns a set of attributes keyed by
// a case-sensitive, unique name. Entities are value objects: SetAttribute and
// RemoveAttribute return a new Entity and leave the receiver untouched.
package entity

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/trylock/viewer-sub002/internal/value"
)

// Source describes where an attribute comes from.
type Source int

const (
	// SourceCustom marks user tags.
	SourceCustom Source = iota

	// SourceMetadata marks attributes read from file metadata (EXIF).
	SourceMetadata

	// SourceFile marks attributes synthesized from the file system.
	SourceFile
)

var sourceNames = [...]string{
	SourceCustom:   "custom",
	SourceMetadata: "metadata",
	SourceFile:     "file",
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceNames[s]
}

// ParseSource parses the String form of a Source.
func ParseSource(s string) (Source, error) {
	for i, name := range sourceNames {
		if strings.EqualFold(name, s) {
			return Source(i), nil
		}
	}
	return SourceCustom, fmt.Errorf("unknown attribute source %q", s)
}

// Attribute is a named, typed value attached to an entity.
type Attribute struct {
	Name   string
	Value  value.Value
	Source Source
}

// NewAttribute creates an attribute.
func NewAttribute(name string, v value.Value, source Source) Attribute {
	return Attribute{Name: name, Value: v, Source: source}
}

// Entity is an addressable item (typically a file) with attributes.
// The zero value is not usable; use New.
type Entity struct {
	path  string
	attrs []Attribute // sorted by Name, unique
}

// New creates an entity. Later attributes replace earlier ones of the same
// name.
func New(path string, attrs ...Attribute) *Entity {
	e := &Entity{path: path}
	for _, a := range attrs {
		e.attrs = upsert(e.attrs, a)
	}
	return e
}

// Path returns the identity of the entity.
func (e *Entity) Path() string {
	return e.path
}

// Attribute looks up an attribute by exact name.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	i, found := slices.BinarySearchFunc(e.attrs, name, compareName)
	if !found {
		return Attribute{}, false
	}
	return e.attrs[i], true
}

// Value returns the value of the named attribute, or the null Integer when
// the entity has no such attribute.
func (e *Entity) Value(name string) value.Value {
	if a, ok := e.Attribute(name); ok {
		return a.Value
	}
	return value.NullInteger()
}

// Attributes iterates attributes in name order.
func (e *Entity) Attributes() iter.Seq[Attribute] {
	return slices.Values(e.attrs)
}

// Len returns the number of attributes.
func (e *Entity) Len() int {
	return len(e.attrs)
}

// SetAttribute returns a copy of e with attr replacing any attribute of the
// same name.
func (e *Entity) SetAttribute(attr Attribute) *Entity {
	return &Entity{path: e.path, attrs: upsert(slices.Clone(e.attrs), attr)}
}

// RemoveAttribute returns a copy of e without the named attribute.
// Returns e itself when there is nothing to remove.
func (e *Entity) RemoveAttribute(name string) *Entity {
	i, found := slices.BinarySearchFunc(e.attrs, name, compareName)
	if !found {
		return e
	}
	return &Entity{path: e.path, attrs: slices.Delete(slices.Clone(e.attrs), i, i+1)}
}

// WithPath returns a copy of e under a different path.
func (e *Entity) WithPath(path string) *Entity {
	return &Entity{path: path, attrs: e.attrs}
}

func (e *Entity) String() string {
	return e.path
}

func upsert(attrs []Attribute, attr Attribute) []Attribute {
	i, found := slices.BinarySearchFunc(attrs, attr.Name, compareName)
	if found {
		attrs[i] = attr
		return attrs
	}
	return slices.Insert(attrs, i, attr)
}

func compareName(a Attribute, name string) int {
	return strings.Compare(a.Name, name)
}
