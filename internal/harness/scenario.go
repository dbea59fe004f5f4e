package harness

import (
	"fmt"
	"path"
	"sort"
)

// Scenario is one product test.
type Scenario struct {
	// Name uniquely identifies the scenario within a run.
	Name string

	// Description says what the scenario checks.
	Description string

	// Groups are the test groups the scenario belongs to; runs can be
	// restricted to groups.
	Groups []string

	// Requires lists what must be in place before the scenario runs.
	Requires []Requirement

	// Run is the scenario body. An *AssertionError marks the scenario as
	// failed; any other error marks it as errored.
	Run func(c *Context) error
}

// InGroup reports whether the scenario belongs to group.
func (s *Scenario) InGroup(group string) bool {
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Filter selects scenarios. A scenario matches when it is in any of Groups
// (or Groups is empty) and its name matches the Pattern glob (or Pattern
// is empty).
type Filter struct {
	Groups  []string
	Pattern string
}

// Match reports whether s is selected.
func (f Filter) Match(s *Scenario) (bool, error) {
	if len(f.Groups) > 0 {
		in := false
		for _, g := range f.Groups {
			if s.InGroup(g) {
				in = true
				break
			}
		}
		if !in {
			return false, nil
		}
	}
	if f.Pattern == "" {
		return true, nil
	}
	ok, err := path.Match(f.Pattern, s.Name)
	if err != nil {
		return false, fmt.Errorf("invalid scenario filter %q: %w", f.Pattern, err)
	}
	return ok, nil
}

// Select returns the scenarios f matches, in their original order.
func Select(scenarios []*Scenario, f Filter) ([]*Scenario, error) {
	var out []*Scenario
	for _, s := range scenarios {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Validate checks that scenarios are runnable and their names are unique.
func Validate(scenarios []*Scenario) error {
	seen := make(map[string]bool, len(scenarios))
	for i, s := range scenarios {
		if s == nil {
			return fmt.Errorf("scenario %d is nil", i)
		}
		if s.Name == "" {
			return fmt.Errorf("scenario %d has no name", i)
		}
		if s.Run == nil {
			return fmt.Errorf("scenario %s has no body", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Groups returns the distinct groups used by scenarios, sorted.
func Groups(scenarios []*Scenario) []string {
	set := make(map[string]bool)
	for _, s := range scenarios {
		for _, g := range s.Groups {
			set[g] = true
		}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
