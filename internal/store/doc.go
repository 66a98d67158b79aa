// Package store provides SQLite-backed storage for entity attributes.
//
// Each stored entity is a path plus the attributes that cannot be derived
// from the file system: user tags and metadata read by an indexer. File
// attributes are synthesized on enumeration and are never stored.
//
// # Value encoding
//
// The attributes table keeps the value type next to the value so nulls keep
// their type:
//   - Integer: INTEGER
//   - Real: REAL
//   - String: TEXT
//   - DateTime: TEXT, RFC 3339 with nanoseconds, UTC
//   - Image: TEXT holding a JSON header with the payload base64 encoded
//   - null of any type: NULL
//
// # Ordering
//
// Reads are ordered by path, then attribute name, both COLLATE BINARY, so
// results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting an entity removes its attributes
package store
