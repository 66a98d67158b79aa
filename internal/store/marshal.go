package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/trylock/viewer-sub002/internal/value"
)

const timeLayout = time.RFC3339Nano

// imageHeader is the stored form of an Image value.
type imageHeader struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data,omitempty"`
}

// marshalValue converts v to the SQL value of the attributes.value column.
// Nulls of every type are stored as NULL.
func marshalValue(v value.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v := v.(type) {
	case value.Integer:
		n, _ := v.Int64()
		return n, nil
	case value.Real:
		f, _ := v.Float64()
		return f, nil
	case value.String:
		s, _ := v.Text()
		return s, nil
	case value.DateTime:
		t, _ := v.Time()
		return t.UTC().Format(timeLayout), nil
	case value.Image:
		img, _ := v.Image()
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(imageHeader(img)); err != nil {
			return nil, fmt.Errorf("marshal image: %w", err)
		}
		// Encoder adds a trailing newline, remove it
		return strings.TrimSpace(buf.String()), nil
	}
	return nil, fmt.Errorf("marshal value: unsupported type %s", v.Type())
}

// unmarshalValue converts a scanned attributes.value column back to a value
// of type t.
func unmarshalValue(t value.TypeID, raw any) (value.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unmarshal value: unknown type %d", int(t))
	}
	if raw == nil {
		return value.Null(t), nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}

	switch t {
	case value.TypeInteger:
		if n, ok := raw.(int64); ok {
			return value.NewInteger(n), nil
		}
	case value.TypeReal:
		switch f := raw.(type) {
		case float64:
			return value.NewReal(f), nil
		case int64:
			return value.NewReal(float64(f)), nil
		}
	case value.TypeString:
		if s, ok := raw.(string); ok {
			return value.NewString(s), nil
		}
	case value.TypeDateTime:
		if s, ok := raw.(string); ok {
			tm, err := time.Parse(timeLayout, s)
			if err != nil {
				return nil, fmt.Errorf("unmarshal datetime: %w", err)
			}
			return value.NewDateTime(tm), nil
		}
	case value.TypeImage:
		if s, ok := raw.(string); ok {
			var img imageHeader
			if err := json.Unmarshal([]byte(s), &img); err != nil {
				return nil, fmt.Errorf("unmarshal image: %w", err)
			}
			return value.NewImage(value.ImageData(img)), nil
		}
	}
	return nil, fmt.Errorf("unmarshal value: %s column holds %T", t, raw)
}
