package views

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrInvalidName is returned for names a query cannot reference.
var ErrInvalidName = errors.New("invalid view name")

// View is a named query text.
type View struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Origin      string `json:"origin,omitempty"` // file or catalog it was loaded from
}

// ChangeKind says what happened to a view.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is one observed modification.
type Change struct {
	Kind ChangeKind
	Name string
}

// ValidateName checks that name can appear in a query: plain or backtick
// quoted. Quoted names cannot contain a backtick.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, "`\n\r") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

type observer struct {
	id int
	fn func(Change)
}

// Repository is a concurrent view store. Readers see consistent snapshots
// without locking; writers are serialized.
type Repository struct {
	mu        sync.Mutex // serializes writers and observer registration
	views     atomic.Pointer[map[string]View]
	observers atomic.Pointer[[]observer]
	nextID    int
}

// NewRepository creates a repository holding views. Later duplicates of a
// name win.
func NewRepository(views ...View) (*Repository, error) {
	r := &Repository{}
	m := make(map[string]View, len(views))
	for _, v := range views {
		if err := ValidateName(v.Name); err != nil {
			return nil, err
		}
		m[v.Name] = v
	}
	r.views.Store(&m)
	r.observers.Store(&[]observer{})
	return r, nil
}

func (r *Repository) snapshot() map[string]View {
	return *r.views.Load()
}

// Find returns the view called name. Names are case-sensitive.
func (r *Repository) Find(name string) (View, bool) {
	v, ok := r.snapshot()[name]
	return v, ok
}

// Lookup returns the query text of the view called name.
func (r *Repository) Lookup(name string) (string, bool) {
	v, ok := r.Find(name)
	return v.Text, ok
}

// All returns the views sorted by name.
func (r *Repository) All() []View {
	return slices.SortedFunc(maps.Values(r.snapshot()), func(a, b View) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// Names returns the view names, sorted.
func (r *Repository) Names() []string {
	return slices.Sorted(maps.Keys(r.snapshot()))
}

// Len returns the number of views.
func (r *Repository) Len() int {
	return len(r.snapshot())
}

// Put adds or replaces a view.
func (r *Repository) Put(v View) error {
	if err := ValidateName(v.Name); err != nil {
		return err
	}
	r.mu.Lock()
	old := r.snapshot()
	prev, exists := old[v.Name]
	if exists && prev == v {
		r.mu.Unlock()
		return nil
	}
	next := maps.Clone(old)
	next[v.Name] = v
	r.views.Store(&next)
	r.mu.Unlock()

	kind := Added
	if exists {
		kind = Updated
	}
	r.notify([]Change{{Kind: kind, Name: v.Name}})
	return nil
}

// Remove deletes the view called name and reports whether it existed.
func (r *Repository) Remove(name string) bool {
	r.mu.Lock()
	old := r.snapshot()
	if _, ok := old[name]; !ok {
		r.mu.Unlock()
		return false
	}
	next := maps.Clone(old)
	delete(next, name)
	r.views.Store(&next)
	r.mu.Unlock()

	r.notify([]Change{{Kind: Removed, Name: name}})
	return true
}

// Replace swaps the whole content for views, atomically. Observers get one
// change per added, updated or removed view, ordered by name.
func (r *Repository) Replace(views []View) error {
	next := make(map[string]View, len(views))
	for _, v := range views {
		if err := ValidateName(v.Name); err != nil {
			return err
		}
		next[v.Name] = v
	}

	r.mu.Lock()
	old := r.snapshot()
	r.views.Store(&next)
	r.mu.Unlock()

	var changes []Change
	for name, v := range next {
		prev, ok := old[name]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, Name: name})
		case prev != v:
			changes = append(changes, Change{Kind: Updated, Name: name})
		}
	}
	for name := range old {
		if _, ok := next[name]; !ok {
			changes = append(changes, Change{Kind: Removed, Name: name})
		}
	}
	slices.SortFunc(changes, func(a, b Change) int {
		return cmp.Compare(a.Name, b.Name)
	})
	r.notify(changes)
	return nil
}

// Subscribe registers fn for changes. The returned function unregisters it
// and is safe to call more than once.
func (r *Repository) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	obs := append(slices.Clone(*r.observers.Load()), observer{id: id, fn: fn})
	r.observers.Store(&obs)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		obs := slices.DeleteFunc(slices.Clone(*r.observers.Load()), func(o observer) bool {
			return o.id == id
		})
		r.observers.Store(&obs)
	}
}

func (r *Repository) notify(changes []Change) {
	obs := *r.observers.Load()
	for _, c := range changes {
		for _, o := range obs {
			o.fn(c)
		}
	}
}
