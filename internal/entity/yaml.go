package entity

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trylock/viewer-sub002/internal/value"
)

// DecodeYAML reads a list of entities:
//
//	# entities.yaml
//	- path: photos/beach.jpg
//	  attributes:
//	    rating: 4                      # Integer
//	    ratio: 1.5                     # Real
//	    title: Beach                   # String
//	    taken: 2019-07-14T18:30:00Z    # DateTime
//	    favorite: true                 # Integer 1; false is null
//	    note: ~                        # null Integer
//	    width: {type: Real, value: ~, source: metadata}
//
// Plain attributes are custom. The mapping form sets the type and source
// explicitly; Image values take {format, width, height}.
func DecodeYAML(r io.Reader) ([]*Entity, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return DecodeYAMLNode(&doc)
}

// DecodeYAMLNode decodes an entity list from an already parsed node, for
// documents that embed one.
func DecodeYAMLNode(n *yaml.Node) ([]*Entity, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: entities must be a sequence, got %s", n.Line, kindName(n.Kind))
	}

	out := make([]*Entity, 0, len(n.Content))
	for i, item := range n.Content {
		e, err := decodeEntity(item)
		if err != nil {
			return nil, fmt.Errorf("entity %d (line %d): %w", i, item.Line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeEntity(n *yaml.Node) (*Entity, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, got %s", kindName(n.Kind))
	}
	var (
		path  string
		attrs []Attribute
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "path":
			if err := val.Decode(&path); err != nil {
				return nil, err
			}
		case "attributes":
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("attributes must be a mapping, got %s", kindName(val.Kind))
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				attr, err := decodeAttribute(name, val.Content[j+1])
				if err != nil {
					return nil, fmt.Errorf("attribute %s (line %d): %w", name, val.Content[j+1].Line, err)
				}
				attrs = append(attrs, attr)
			}
		default:
			return nil, fmt.Errorf("unknown field %q", key.Value)
		}
	}
	if path == "" {
		return nil, errors.New("path is required")
	}
	return New(path, attrs...), nil
}

func decodeAttribute(name string, node *yaml.Node) (Attribute, error) {
	if node.Kind != yaml.MappingNode {
		v, err := decodeScalar(node)
		return NewAttribute(name, v, SourceCustom), err
	}

	var typed struct {
		Type   string    `yaml:"type"`
		Value  yaml.Node `yaml:"value"`
		Source string    `yaml:"source"`
	}
	if err := node.Decode(&typed); err != nil {
		return Attribute{}, err
	}
	t, err := parseType(typed.Type)
	if err != nil {
		return Attribute{}, err
	}
	source := SourceCustom
	if typed.Source != "" {
		if source, err = ParseSource(typed.Source); err != nil {
			return Attribute{}, err
		}
	}

	var v value.Value
	switch {
	case typed.Value.Kind == 0 || typed.Value.Tag == "!!null":
		v = value.Null(t)
	case t == value.TypeImage:
		var img struct {
			Format string `yaml:"format"`
			Width  int    `yaml:"width"`
			Height int    `yaml:"height"`
		}
		if err := typed.Value.Decode(&img); err != nil {
			return Attribute{}, err
		}
		v = value.NewImage(value.ImageData{Format: img.Format, Width: img.Width, Height: img.Height})
	default:
		scalar, err := decodeScalar(&typed.Value)
		if err != nil {
			return Attribute{}, err
		}
		if !value.CanConvert(scalar.Type(), t) {
			return Attribute{}, fmt.Errorf("cannot use %s as %s", scalar.Type(), t)
		}
		v = value.ConvertTo(scalar, t)
	}
	return NewAttribute(name, v, source), nil
}

func decodeScalar(node *yaml.Node) (value.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar, got %s", kindName(node.Kind))
	}
	switch node.Tag {
	case "!!null":
		return value.NullInteger(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		return value.NewInteger(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return value.NewReal(f), nil
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return nil, err
		}
		return value.NewDateTime(t), nil
	default:
		return value.NewString(node.Value), nil
	}
}

func parseType(name string) (value.TypeID, error) {
	for _, t := range value.Types {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", name)
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		return "scalar"
	}
	return "document"
}
