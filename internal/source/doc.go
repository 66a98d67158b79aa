// Package source provides the entities a query starts from: the regular
// files under a root directory that match a path pattern.
//
// # PATTERNS
//
// Patterns are /-separated and relative to the root. Each segment uses
// path.Match syntax; a segment that is exactly ** spans any number of
// directories. A pattern without metacharacters that names a directory
// selects the files directly inside it.
//
// # ATTRIBUTES
//
// Every file entity carries FileName, Extension (lower case, no dot),
// Directory, FileSize and LastWriteTime. Attributes from the store are
// merged on top and win on name clashes.
package source
