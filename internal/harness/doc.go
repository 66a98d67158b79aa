// Package harness runs query scenarios as executable contract tests.
//
// A scenario fixes a set of entities and views, then runs a list of steps.
// Each step either compiles and enumerates a query or asks for suggestions
// at a caret. Steps may state expectations; every step also lands in a
// trace that can be compared against a golden file.
//
// # Scenario Format
//
//	name: rated_photos
//	description: "Filters photos by rating"
//	views:
//	  best: SELECT "**" WHERE rating >= 4
//	entities:
//	  - path: a.jpg
//	    attributes: {rating: 5}
//	steps:
//	  - query: SELECT best ORDER BY rating DESC
//	    expect:
//	      entities: [a.jpg]
//	      compile_errors: []
//	  - suggest: SELECT "x" WHERE ra|
//	    expect:
//	      suggestions: [rating, ra]
//
// The caret of a suggest step is the "|" in its text. Expectations that are
// left out are not checked; an empty list expects nothing.
//
// # Deterministic Testing
//
// Every scenario runs against fresh in-memory components. Entities are
// enumerated in path order and listener events are numbered by a
// testutil.Sequence, so traces are identical across runs.
package harness
