package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trylock/viewer-sub002/internal/entity"
)

// Scenario defines a query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Views maps view names to query text.
	Views map[string]string `yaml:"views,omitempty"`

	// Entities are the entities every query pattern is matched against.
	Entities Entities `yaml:"entities"`

	// SuggestLimit caps the suggestions of each suggest step. Zero means
	// unlimited.
	SuggestLimit int `yaml:"suggest_limit,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Entities is an entity list in the entity.DecodeYAML format.
type Entities []*entity.Entity

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Entities) UnmarshalYAML(n *yaml.Node) error {
	decoded, err := entity.DecodeYAMLNode(n)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// Step is either a query or a suggest step.
type Step struct {
	// Query is compiled and enumerated.
	Query string `yaml:"query,omitempty"`

	// Suggest is a partial query with a "|" marking the caret.
	Suggest string `yaml:"suggest,omitempty"`

	// Expect is checked against the outcome. Nil checks nothing.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Caret is the marker of the caret in suggest steps.
const Caret = "|"

// Kind returns "query" or "suggest".
func (s Step) Kind() string {
	if s.Suggest != "" {
		return StepSuggest
	}
	return StepQuery
}

// Step kinds.
const (
	StepQuery   = "query"
	StepSuggest = "suggest"
)

// Expect lists the expected outcome of a step. A nil list is not checked.
type Expect struct {
	// Entities are the paths of the result, in order.
	Entities []string `yaml:"entities,omitempty"`

	// CompileErrors and RuntimeErrors are "line:column: message" strings.
	CompileErrors []string `yaml:"compile_errors,omitempty"`
	RuntimeErrors []string `yaml:"runtime_errors,omitempty"`

	// Suggestions are suggestion names in rank order.
	Suggestions []string `yaml:"suggestions,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.SuggestLimit < 0 {
		return fmt.Errorf("suggest_limit must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch {
	case s.Query == "" && s.Suggest == "":
		return fmt.Errorf("steps[%d]: query or suggest is required", index)
	case s.Query != "" && s.Suggest != "":
		return fmt.Errorf("steps[%d]: query and suggest are exclusive", index)
	case s.Suggest != "" && strings.Count(s.Suggest, Caret) != 1:
		return fmt.Errorf("steps[%d]: suggest needs exactly one %q caret", index, Caret)
	}

	if s.Expect == nil {
		return nil
	}
	if s.Kind() == StepQuery && s.Expect.Suggestions != nil {
		return fmt.Errorf("steps[%d]: suggestions expected from a query step", index)
	}
	if s.Kind() == StepSuggest && (s.Expect.Entities != nil || s.Expect.CompileErrors != nil || s.Expect.RuntimeErrors != nil) {
		return fmt.Errorf("steps[%d]: query expectations on a suggest step", index)
	}
	return nil
}
