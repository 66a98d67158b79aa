package functions

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/trylock/viewer-sub002/internal/value"
)

// Signature is a function name with its ordered parameter types.
type Signature struct {
	Name   string
	Params []value.TypeID
}

// String renders the signature as name(Type, Type).
func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return s.Name + "(" + strings.Join(params, ", ") + ")"
}

// Function is a registered, type-qualified callable.
type Function struct {
	Name    string
	Params  []value.TypeID
	Returns value.TypeID

	// Call receives arguments already converted to Params.
	Call func(ctx *Context) value.Value

	// UsesEntity marks functions whose result depends on Context.Entity.
	// Calls to them are never constant folded.
	UsesEntity bool
}

// Signature returns the name and parameter types of f.
func (f *Function) Signature() Signature {
	return Signature{Name: f.Name, Params: f.Params}
}

// snapshot is an immutable view of the registry contents.
type snapshot struct {
	ordered []*Function            // registration order
	byName  map[string][]*Function // key: lower-cased name
}

// Registry holds the set of callable functions.
// The zero value is not usable; use NewRegistry.
type Registry struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{byName: map[string][]*Function{}})
	return r
}

// NewBuiltinRegistry creates a registry preloaded with Builtins.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(Builtins()...); err != nil {
		// Builtins are a static table; a conflict is a programming defect.
		panic(fmt.Sprintf("functions: invalid builtin table: %v", err))
	}
	return r
}

// Register adds functions to the registry.
//
// Either all functions are added or none are. A function is rejected when
// its name is empty, its Call is nil, a type is unknown, or another function
// already has the same name (case-insensitive) and parameter types.
func (r *Registry) Register(fns ...Function) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	next := &snapshot{
		ordered: slices.Clone(old.ordered),
		byName:  make(map[string][]*Function, len(old.byName)+len(fns)),
	}
	for k, v := range old.byName {
		next.byName[k] = v
	}

	for i := range fns {
		fn := fns[i]
		if err := validate(&fn); err != nil {
			return err
		}
		fn.Params = slices.Clone(fn.Params)
		key := strings.ToLower(fn.Name)
		for _, existing := range next.byName[key] {
			if slices.Equal(existing.Params, fn.Params) {
				return fmt.Errorf("function %s already registered", fn.Signature())
			}
		}
		// Append to a fresh slice so older snapshots are never aliased.
		next.byName[key] = append(slices.Clip(next.byName[key]), &fn)
		next.ordered = append(next.ordered, &fn)
	}

	r.snap.Store(next)
	return nil
}

func validate(fn *Function) error {
	if fn.Name == "" {
		return errors.New("function name is empty")
	}
	if fn.Call == nil {
		return fmt.Errorf("function %s has no implementation", fn.Name)
	}
	if !fn.Returns.Valid() {
		return fmt.Errorf("function %s has unknown return type %s", fn.Name, fn.Returns)
	}
	for _, p := range fn.Params {
		if !p.Valid() {
			return fmt.Errorf("function %s has unknown parameter type %s", fn.Name, p)
		}
	}
	return nil
}

// Lookup returns every overload of name in registration order.
func (r *Registry) Lookup(name string) []Function {
	fns := r.snap.Load().byName[strings.ToLower(name)]
	out := make([]Function, len(fns))
	for i, fn := range fns {
		out[i] = *fn
	}
	return out
}

// Names returns the distinct function names, sorted case-insensitively.
// Each name is spelled as its first registration spelled it.
func (r *Registry) Names() []string {
	snap := r.snap.Load()
	names := make([]string, 0, len(snap.byName))
	for _, fns := range snap.byName {
		names = append(names, fns[0].Name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names
}

// Has reports whether any function is called name.
func (r *Registry) Has(name string) bool {
	return len(r.snap.Load().byName[strings.ToLower(name)]) > 0
}

// HasArity reports whether some overload of name takes n arguments.
func (r *Registry) HasArity(name string, n int) bool {
	for _, fn := range r.snap.Load().byName[strings.ToLower(name)] {
		if len(fn.Params) == n {
			return true
		}
	}
	return false
}

// UsesEntity reports whether some overload of name depends on the entity
// being evaluated.
func (r *Registry) UsesEntity(name string) bool {
	for _, fn := range r.snap.Load().byName[strings.ToLower(name)] {
		if fn.UsesEntity {
			return true
		}
	}
	return false
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.snap.Load().ordered)
}

// Resolve selects the overload of name with the minimum total conversion
// cost for args. It returns a *ResolveError when nothing matches or the
// minimum is shared by several overloads.
func (r *Registry) Resolve(name string, args []value.TypeID) (*Function, error) {
	fns := r.snap.Load().byName[strings.ToLower(name)]
	if len(fns) == 0 {
		return nil, &ResolveError{Code: ErrCodeUnknownFunction, Name: name, Args: args}
	}

	best := math.MaxInt
	var tied []*Function
	for _, fn := range fns {
		cost, ok := callCost(fn.Params, args)
		if !ok {
			continue
		}
		switch {
		case cost < best:
			best = cost
			tied = append(tied[:0], fn)
		case cost == best:
			tied = append(tied, fn)
		}
	}

	switch len(tied) {
	case 0:
		return nil, &ResolveError{Code: ErrCodeNoMatch, Name: name, Args: args}
	case 1:
		return tied[0], nil
	default:
		candidates := make([]Signature, len(tied))
		for i, fn := range tied {
			candidates[i] = fn.Signature()
		}
		return nil, &ResolveError{Code: ErrCodeAmbiguous, Name: name, Args: args, Candidates: candidates}
	}
}

// callCost sums conversion costs. ok is false on an arity mismatch or an
// impossible conversion.
func callCost(params, args []value.TypeID) (cost int, ok bool) {
	if len(params) != len(args) {
		return 0, false
	}
	for i, p := range params {
		c := value.ConversionCost(args[i], p)
		if c == value.Impossible {
			return 0, false
		}
		cost += c
	}
	return cost, true
}
