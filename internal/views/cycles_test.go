package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCyclesAcyclic(t *testing.T) {
	a := AnalyzeCycles([]View{
		{Name: "base", Text: `SELECT "*"`},
		{Name: "top", Text: `SELECT base WHERE rating > 3`},
		{Name: "both", Text: `base UNION top`},
	})
	assert.Empty(t, a.Cycles)
	assert.Empty(t, a.Problems)
	assert.Empty(t, a.Missing)
}

func TestAnalyzeCyclesReportsComponents(t *testing.T) {
	a := AnalyzeCycles([]View{
		{Name: "c", Text: `SELECT a`},
		{Name: "a", Text: `b UNION SELECT "x"`},
		{Name: "b", Text: `SELECT c WHERE x`},
		{Name: "self", Text: `SELECT "x" EXCEPT self`},
		{Name: "d", Text: `a`},
	})

	require.Len(t, a.Cycles, 2)
	assert.Equal(t, []string{"a", "b", "c", "a"}, a.Cycles[0].Path)
	assert.Equal(t, "cyclic view reference a -> b -> c -> a", a.Cycles[0].Message)
	assert.Equal(t, []string{"self", "self"}, a.Cycles[1].Path)
}

func TestAnalyzeCyclesPicksShortestCycle(t *testing.T) {
	a := AnalyzeCycles([]View{
		{Name: "a", Text: `b UNION c`},
		{Name: "b", Text: `c`},
		{Name: "c", Text: `a`},
	})
	require.Len(t, a.Cycles, 1)
	assert.Equal(t, []string{"a", "c", "a"}, a.Cycles[0].Path)
}

func TestAnalyzeCyclesProblems(t *testing.T) {
	a := AnalyzeCycles([]View{
		{Name: "broken", Text: `SELECT`},
		{Name: "dangling", Text: `SELECT nowhere UNION broken`},
	})
	require.Len(t, a.Problems, 1)
	assert.Equal(t, "broken", a.Problems[0].View)
	assert.Error(t, a.Problems[0].Err)
	assert.Equal(t, map[string][]string{"dangling": {"nowhere"}}, a.Missing)
	assert.Empty(t, a.Cycles)
}
