package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenariosMatchGolden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_FailedExpectationsAreReported(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failing
description: "Expectations that do not hold"
entities:
  - path: a.jpg
    attributes: {rating: 1}
steps:
  - query: SELECT "*" WHERE rating > 3
    expect:
      entities: [a.jpg]
  - query: SELECT "*" WHERE nope(rating)
    expect:
      compile_errors: []
  - suggest: SELECT "*" WHERE ra|
    expect:
      suggestions: [ra]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "step 1")
	assert.Contains(t, result.Errors[0], "entities")
	assert.Contains(t, result.Errors[1], `unknown function \"nope\"`)
	assert.Contains(t, result.Errors[2], "suggestions")
	assert.Len(t, result.Trace, 3)
}

func TestRun_SuggestLimit(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: limited
description: "Caps suggestions"
suggest_limit: 2
entities: []
steps:
  - suggest: SELECT "x" |
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"keyword WHERE", "keyword ORDER BY"}, result.Trace[0].Suggestions)
}

func TestRun_InvalidView(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: invalid_view
description: "A view name that cannot be stored"
views:
  "bad` + "`" + `name": SELECT "x"
steps:
  - query: SELECT "x"
`))
	require.NoError(t, err)

	_, err = Run(s)
	assert.Error(t, err)
}

func TestTraceSnapshotKeepsOperators(t *testing.T) {
	snap := TraceSnapshot{ScenarioName: "s", Trace: []TraceEvent{{Step: 1, Kind: StepQuery, Input: "a < b & c"}}}
	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input": "a < b & c"`)
}
