package views

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CatalogError is an invalid CUE view catalog.
type CatalogError struct {
	View    string // empty for errors outside a view
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	where := "catalog"
	if e.View != "" {
		where = "view " + e.View
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// LoadCatalog reads views from CUE source. Views live under the top-level
// "view" struct; each has a string "query" and an optional string
// "description". Views are returned in declaration order.
func LoadCatalog(filename string, src []byte) ([]View, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, catalogError("", err)
	}

	viewsVal := root.LookupPath(cue.ParsePath("view"))
	if !viewsVal.Exists() {
		return nil, nil
	}
	it, err := viewsVal.Fields()
	if err != nil {
		return nil, catalogError("", err)
	}

	var views []View
	for it.Next() {
		name := it.Selector().Unquoted()
		v := it.Value()

		queryVal := v.LookupPath(cue.ParsePath("query"))
		if !queryVal.Exists() {
			return nil, &CatalogError{View: name, Message: "query is required", Pos: v.Pos()}
		}
		text, err := queryVal.String()
		if err != nil {
			return nil, catalogError(name, err)
		}

		var desc string
		if d := v.LookupPath(cue.ParsePath("description")); d.Exists() {
			if desc, err = d.String(); err != nil {
				return nil, catalogError(name, err)
			}
		}

		if err := ValidateName(name); err != nil {
			return nil, &CatalogError{View: name, Message: err.Error(), Pos: v.Pos()}
		}
		views = append(views, View{Name: name, Text: text, Description: desc, Origin: filename})
	}
	return views, nil
}

// catalogError keeps the position of the first CUE error.
func catalogError(view string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CatalogError{View: view, Message: err.Error()}
	}
	first := errs[0]
	ce := &CatalogError{View: view, Message: first.Error()}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		ce.Pos = pos[0]
	}
	return ce
}
