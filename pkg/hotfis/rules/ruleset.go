package rules

import "sort"

// Ruleset is an ordered collection of rules. Order affects nothing but
// iteration; the input and output name sets are derived once at
// construction.
type Ruleset struct {
	rules   []*Rule
	inputs  []string
	outputs []string
}

// NewRuleset collects rules and scans them for the required input group
// names and produced output group names.
func NewRuleset(rs []*Rule) *Ruleset {
	set := &Ruleset{rules: make([]*Rule, len(rs))}
	copy(set.rules, rs)

	in := make(map[string]struct{})
	out := make(map[string]struct{})
	for _, r := range set.rules {
		for _, ant := range r.Antecedents() {
			in[ant.Group] = struct{}{}
		}
		out[r.Consequent().Group] = struct{}{}
	}
	set.inputs = sortedKeys(in)
	set.outputs = sortedKeys(out)
	return set
}

// ParseRuleset parses one rule per line of text.
func ParseRuleset(lines []string) (*Ruleset, error) {
	rs := make([]*Rule, 0, len(lines))
	for _, line := range lines {
		r, err := Parse(line)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return NewRuleset(rs), nil
}

// Rules returns the rules in order.
func (s *Ruleset) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// InputNames returns the sorted union of antecedent group names.
func (s *Ruleset) InputNames() []string {
	out := make([]string, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// OutputNames returns the sorted union of consequent group names.
func (s *Ruleset) OutputNames() []string {
	out := make([]string, len(s.outputs))
	copy(out, s.outputs)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
