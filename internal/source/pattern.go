package source

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPattern is returned for patterns that cannot be matched.
var ErrInvalidPattern = errors.New("invalid path pattern")

// doubleStar matches any number of directories, including none.
const doubleStar = "**"

// Pattern is a parsed, /-separated path pattern relative to a root.
//
// Segments use path.Match syntax (*, ?, [...], \ escapes). A segment that is
// exactly ** matches zero or more whole segments.
type Pattern struct {
	text     string
	segments []string
	base     int // leading segments without metacharacters
}

// ParsePattern parses text. A leading "/" or "./" is ignored; ".." segments
// are rejected.
func ParsePattern(text string) (*Pattern, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(text, "./"), "/")
	var segments []string
	for _, seg := range strings.Split(trimmed, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return nil, fmt.Errorf("%w %q: pattern leaves the root", ErrInvalidPattern, text)
		}
		if seg != doubleStar {
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, text, err)
			}
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w %q: empty pattern", ErrInvalidPattern, text)
	}

	p := &Pattern{text: text, segments: segments}
	for p.base < len(segments) && !hasMeta(segments[p.base]) {
		p.base++
	}
	return p, nil
}

func hasMeta(seg string) bool {
	return strings.ContainsAny(seg, `*?[\`)
}

// String returns the pattern text as written.
func (p *Pattern) String() string {
	return p.text
}

// Base returns the directory the walk starts from: the longest leading run
// of literal segments, excluding the last segment.
func (p *Pattern) Base() string {
	n := min(p.base, len(p.segments)-1)
	return path.Join(p.segments[:n]...)
}

// Literal reports whether the pattern has no metacharacters.
func (p *Pattern) Literal() bool {
	return p.base == len(p.segments)
}

// Match reports whether the /-separated relative path name matches.
func (p *Pattern) Match(name string) bool {
	return matchSegments(p.segments, split(name), false)
}

// MatchPrefix reports whether some path below directory dir could match.
func (p *Pattern) MatchPrefix(dir string) bool {
	return matchSegments(p.segments, split(dir), true)
}

// Contents returns the pattern of the entries directly inside a literal
// directory pattern.
func (p *Pattern) Contents() *Pattern {
	return &Pattern{
		text:     p.text,
		segments: append(append([]string(nil), p.segments...), "*"),
		base:     p.base,
	}
}

func split(name string) []string {
	if name == "" || name == "." {
		return nil
	}
	return strings.Split(name, "/")
}

// matchSegments matches parts against pattern segments. With prefix set, it
// reports whether parts can be extended to a match.
func matchSegments(segments, parts []string, prefix bool) bool {
	for len(segments) > 0 {
		if segments[0] == doubleStar {
			rest := segments[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:], prefix) {
					return true
				}
			}
			// ** can absorb everything left in a prefix.
			return prefix
		}
		if len(parts) == 0 {
			return prefix
		}
		if ok, _ := path.Match(segments[0], parts[0]); !ok {
			return false
		}
		segments, parts = segments[1:], parts[1:]
	}
	return len(parts) == 0
}
