// Package rules parses natural-language fuzzy rules and evaluates their
// firing strength. A rule reads
//
//	if service is poor or food is rancid then tip is cheap
//
// Keywords (if, then, is, and, or) are case-insensitive; group and
// function names are case-sensitive. Mixed and/or clauses combine
// left-to-right with no precedence.
package rules

import (
	"fmt"
	"strings"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// Ref names one (group, function) pair, as used by antecedent leaves and
// the consequent.
type Ref struct {
	Group string
	Fn    string
}

// Lookup resolves the membership of the current input to the named
// function in the named group. Engines supply it at evaluation time.
type Lookup func(group, fn string) (values.Value, error)

type nodeKind int

const (
	nodeLeaf nodeKind = iota
	nodeAnd
	nodeOr
)

// node is one entry of the rule's expression arena. Internal nodes store
// arena indices rather than pointers, so the tree is a flat slice.
type node struct {
	kind        nodeKind
	ref         Ref // leaf only
	left, right int // and/or only
}

// Rule is a parsed, immutable fuzzy rule: an antecedent expression tree
// plus a single consequent.
type Rule struct {
	text       string
	nodes      []node
	root       int
	leaves     []Ref
	consequent Ref
}

// Parse reads a rule from text. Malformed text fails with a parse error
// naming the offending token.
func Parse(text string) (*Rule, error) {
	p := parser{tokens: strings.Fields(text)}

	if err := p.keyword("if"); err != nil {
		return nil, err
	}

	r := &Rule{text: text}

	root, err := p.term(r)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peek()
		if !ok {
			return nil, p.failf("unexpected end of rule, want 'and', 'or' or 'then'")
		}
		lower := strings.ToLower(op)
		if lower == "then" {
			p.next()
			break
		}
		if lower != "and" && lower != "or" {
			return nil, p.failf("unexpected token %q, want 'and', 'or' or 'then'", op)
		}
		p.next()
		right, err := p.term(r)
		if err != nil {
			return nil, err
		}
		kind := nodeAnd
		if lower == "or" {
			kind = nodeOr
		}
		r.nodes = append(r.nodes, node{kind: kind, left: root, right: right})
		root = len(r.nodes) - 1
	}
	r.root = root

	cons, err := p.clause()
	if err != nil {
		return nil, err
	}
	r.consequent = cons
	if tok, ok := p.peek(); ok {
		return nil, p.failf("trailing token %q after consequent", tok)
	}
	return r, nil
}

// Text returns the original rule text.
func (r *Rule) Text() string { return r.text }

// Antecedents returns every (group, function) leaf in encounter order.
func (r *Rule) Antecedents() []Ref {
	out := make([]Ref, len(r.leaves))
	copy(out, r.leaves)
	return out
}

// Consequent returns the rule's (group, function) conclusion.
func (r *Rule) Consequent() Ref { return r.consequent }

// Strength evaluates the antecedent tree elementwise: leaves resolve
// through lookup, 'and' takes the minimum and 'or' the maximum.
func (r *Rule) Strength(lookup Lookup) (values.Value, error) {
	return r.eval(r.root, lookup)
}

func (r *Rule) eval(i int, lookup Lookup) (values.Value, error) {
	n := r.nodes[i]
	if n.kind == nodeLeaf {
		return lookup(n.ref.Group, n.ref.Fn)
	}
	left, err := r.eval(n.left, lookup)
	if err != nil {
		return values.Value{}, err
	}
	right, err := r.eval(n.right, lookup)
	if err != nil {
		return values.Value{}, err
	}
	if n.kind == nodeAnd {
		return values.Min(left, right)
	}
	return values.Max(left, right)
}

// parser is a single left-to-right scan over whitespace tokens.
type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) keyword(want string) error {
	tok, ok := p.next()
	if !ok {
		return p.failf("unexpected end of rule, want %q", want)
	}
	if strings.ToLower(tok) != want {
		return p.failf("unexpected token %q, want %q", tok, want)
	}
	return nil
}

// clause parses "group is function" and returns the pair.
func (p *parser) clause() (Ref, error) {
	group, ok := p.next()
	if !ok {
		return Ref{}, p.failf("unexpected end of rule, want a group name")
	}
	if err := p.keyword("is"); err != nil {
		return Ref{}, err
	}
	fn, ok := p.next()
	if !ok {
		return Ref{}, p.failf("unexpected end of rule, want a function name")
	}
	return Ref{Group: group, Fn: fn}, nil
}

// term parses one clause into a leaf node of r's arena.
func (p *parser) term(r *Rule) (int, error) {
	ref, err := p.clause()
	if err != nil {
		return 0, err
	}
	r.nodes = append(r.nodes, node{kind: nodeLeaf, ref: ref})
	r.leaves = append(r.leaves, ref)
	return len(r.nodes) - 1, nil
}

func (p *parser) failf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("rules: token %d: %s: %w", p.pos, msg, fuzzerr.ErrParse)
}
