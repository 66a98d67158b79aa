package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/trylock/viewer-sub002/internal/querylang"
)

// CycleWarning is a group of views that reference each other. Compiling any
// of them fails.
type CycleWarning struct {
	Path    []string `json:"path"` // ["a", "b", "a"]
	Message string   `json:"message"`
}

// Problem is a view whose text does not parse. Its references are unknown,
// so it takes no part in cycle analysis.
type Problem struct {
	View string `json:"view"`
	Err  error  `json:"-"`
}

// Analysis is the result of AnalyzeCycles.
type Analysis struct {
	Cycles   []CycleWarning
	Problems []Problem
	// Missing maps a view to the names it references that do not exist.
	Missing map[string][]string
}

// AnalyzeCycles builds the view dependency graph, an edge a -> b for every
// reference to view b in the text of view a, and reports each strongly
// connected component that forms a cycle. Results are deterministic: views
// are visited in name order.
func AnalyzeCycles(views []View) Analysis {
	var a Analysis
	graph, names := dependencyGraph(views, &a)

	for _, scc := range tarjanSCC(graph, names) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			a.Cycles = append(a.Cycles, cycleWarning(scc, graph))
		}
	}
	slices.SortFunc(a.Cycles, func(x, y CycleWarning) int {
		return strings.Compare(x.Path[0], y.Path[0])
	})
	return a
}

type graph map[string][]string

func dependencyGraph(views []View, a *Analysis) (graph, []string) {
	g := make(graph, len(views))
	known := make(map[string]bool, len(views))
	for _, v := range views {
		known[v.Name] = true
	}

	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
		g[v.Name] = []string{}
		ast, err := querylang.Parse(v.Text)
		if err != nil {
			a.Problems = append(a.Problems, Problem{View: v.Name, Err: err})
			continue
		}
		for _, ref := range querylang.Views(ast) {
			if !known[ref] {
				if a.Missing == nil {
					a.Missing = make(map[string][]string)
				}
				a.Missing[v.Name] = append(a.Missing[v.Name], ref)
				continue
			}
			g[v.Name] = append(g[v.Name], ref)
		}
	}
	slices.Sort(names)
	return g, names
}

// tarjanSCC returns the strongly connected components of g, visiting roots
// in the order of names.
func tarjanSCC(g graph, names []string) [][]string {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range names {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// cycleWarning returns the shortest cycle through the smallest name of the
// component.
func cycleWarning(scc []string, g graph) CycleWarning {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := slices.Min(scc)

	prev := map[string]string{}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, w := range g[cur] {
			if !members[w] {
				continue
			}
			if w == start {
				path := []string{start}
				for n := cur; n != start; n = prev[n] {
					path = append(path, n)
				}
				slices.Reverse(path[1:])
				path = append(path, start)
				return CycleWarning{
					Path:    path,
					Message: "cyclic view reference " + strings.Join(path, " -> "),
				}
			}
			if _, seen := prev[w]; !seen {
				prev[w] = cur
				queue = append(queue, w)
			}
		}
	}
	panic(fmt.Sprintf("views: component %v has no cycle", scc))
}
