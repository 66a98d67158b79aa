package functions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trylock/viewer-sub002/internal/value"
)

// ResolveErrorCode categorizes resolution failures.
type ResolveErrorCode string

const (
	// ErrCodeUnknownFunction indicates no function has the requested name.
	ErrCodeUnknownFunction ResolveErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeNoMatch indicates every candidate needs an impossible conversion
	// or has a different arity.
	ErrCodeNoMatch ResolveErrorCode = "NO_MATCH"

	// ErrCodeAmbiguous indicates several candidates share the minimum cost.
	ErrCodeAmbiguous ResolveErrorCode = "AMBIGUOUS_CALL"
)

// ResolveError is returned by Registry.Resolve.
type ResolveError struct {
	Code ResolveErrorCode

	// Name is the function name as written at the call site.
	Name string

	// Args are the actual argument types.
	Args []value.TypeID

	// Candidates lists the tied signatures for ErrCodeAmbiguous,
	// in registration order. Empty otherwise.
	Candidates []Signature
}

// Error implements the error interface. The message is user facing: it is
// what the compiler and runtime report through the error listener.
func (e *ResolveError) Error() string {
	call := Signature{Name: e.Name, Params: e.Args}.String()
	switch e.Code {
	case ErrCodeUnknownFunction:
		return fmt.Sprintf("unknown function %q", e.Name)
	case ErrCodeNoMatch:
		return fmt.Sprintf("no overload of %s matches %s", e.Name, call)
	case ErrCodeAmbiguous:
		names := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			names[i] = c.String()
		}
		return fmt.Sprintf("ambiguous call %s: candidates %s", call, strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s: %s", e.Code, call)
	}
}

// IsAmbiguous reports whether err is an ambiguous call.
// Uses errors.As to handle wrapped errors.
func IsAmbiguous(err error) bool {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code == ErrCodeAmbiguous
	}
	return false
}
