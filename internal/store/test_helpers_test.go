package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/trylock/viewer-sub002/internal/entity"
	"github.com/trylock/viewer-sub002/internal/value"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntity creates an entity with one attribute of every type.
func createTestEntity(path string) *entity.Entity {
	return entity.New(path,
		entity.NewAttribute("rating", value.NewInteger(4), entity.SourceCustom),
		entity.NewAttribute("ratio", value.NewReal(1.5), entity.SourceMetadata),
		entity.NewAttribute("title", value.NewString("Beach"), entity.SourceCustom),
		entity.NewAttribute("taken", value.NewDateTime(time.Date(2019, 7, 14, 18, 30, 0, 500, time.UTC)), entity.SourceMetadata),
		entity.NewAttribute("thumbnail", value.NewImage(value.ImageData{Format: "jpeg", Width: 2, Height: 1, Data: []byte{0xff, 0xd8}}), entity.SourceMetadata),
		entity.NewAttribute("missing", value.Null(value.TypeReal), entity.SourceCustom),
	)
}
