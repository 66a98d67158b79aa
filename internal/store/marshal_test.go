package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trylock/viewer-sub002/internal/value"
)

func TestMarshalImageHeader(t *testing.T) {
	raw, err := marshalValue(value.NewImage(value.ImageData{Format: "png", Width: 3, Height: 4, Data: []byte("<>")}))
	require.NoError(t, err)
	assert.Equal(t, `{"format":"png","width":3,"height":4,"data":"PD4="}`, raw)
}

func TestUnmarshalValueErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  value.TypeID
		raw  any
	}{
		{"unknown type", value.TypeID(42), int64(1)},
		{"integer column holds text", value.TypeInteger, "1"},
		{"bad datetime", value.TypeDateTime, "yesterday"},
		{"bad image", value.TypeImage, "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := unmarshalValue(tt.typ, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalRealFromInteger(t *testing.T) {
	v, err := unmarshalValue(value.TypeReal, int64(2))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewReal(2), v))
}
