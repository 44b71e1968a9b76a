// Package network composes named inference engines into a directed
// acyclic graph. One node feeds another when its output group names
// intersect the other's input group names; evaluation walks the graph in
// dependency order, propagating produced outputs downstream.
package network

import (
	"fmt"
	"sort"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

type node struct {
	name    string
	engine  *fis.Engine
	inputs  []string
	outputs []string
}

// Network is an ordered table of named engine nodes plus an adjacency
// list of producer→consumer edges, both keyed by node index. Cycles are
// rejected at insert time, never at evaluation time.
type Network struct {
	nodes []*node
	index map[string]int
	adj   [][]int // adj[i] = indices of nodes consuming node i's outputs
}

// New creates an empty network.
func New() *Network {
	return &Network{index: make(map[string]int)}
}

// Insert adds an engine under a stable name. Duplicate names and edges
// that would close a cycle are configuration errors; a rejected insert
// leaves the network unchanged.
func (n *Network) Insert(e *fis.Engine, name string) error {
	if _, dup := n.index[name]; dup {
		return fmt.Errorf("network: node %q already exists: %w", name, fuzzerr.ErrConfiguration)
	}

	cand := &node{
		name:    name,
		engine:  e,
		inputs:  e.Ruleset().InputNames(),
		outputs: e.Ruleset().OutputNames(),
	}
	nodes := append(n.nodes, cand)
	adj := buildAdjacency(nodes)
	if cyclic(adj) {
		return fmt.Errorf("network: inserting %q would create a cycle: %w",
			name, fuzzerr.ErrConfiguration)
	}

	n.nodes = nodes
	n.index[name] = len(nodes) - 1
	n.adj = adj
	return nil
}

// Engine returns the named node's engine.
func (n *Network) Engine(name string) (*fis.Engine, error) {
	i, ok := n.index[name]
	if !ok {
		return nil, fmt.Errorf("network: node %q: %w", name, fuzzerr.ErrLookup)
	}
	return n.nodes[i].engine, nil
}

// Names returns the node names in insertion order.
func (n *Network) Names() []string {
	out := make([]string, len(n.nodes))
	for i, nd := range n.nodes {
		out[i] = nd.name
	}
	return out
}

// Roots returns the entry points of the graph: nodes none of whose
// inputs are produced by another node, in insertion order. Their inputs
// must be user-supplied.
func (n *Network) Roots() []string {
	indeg := n.indegrees()
	var roots []string
	for i, nd := range n.nodes {
		if indeg[i] == 0 {
			roots = append(roots, nd.name)
		}
	}
	return roots
}

// ReqInputs returns the external input group names needed to evaluate a
// node: the union of its own and its ancestors' inputs, minus everything
// an ancestor produces. Sorted.
func (n *Network) ReqInputs(name string) ([]string, error) {
	i, ok := n.index[name]
	if !ok {
		return nil, fmt.Errorf("network: node %q: %w", name, fuzzerr.ErrLookup)
	}

	ancestors := make(map[int]bool)
	n.collectAncestors(i, ancestors)

	required := make(map[string]struct{})
	for _, in := range n.nodes[i].inputs {
		required[in] = struct{}{}
	}
	produced := make(map[string]struct{})
	for a := range ancestors {
		for _, in := range n.nodes[a].inputs {
			required[in] = struct{}{}
		}
		for _, out := range n.nodes[a].outputs {
			produced[out] = struct{}{}
		}
	}

	var out []string
	for in := range required {
		if _, ok := produced[in]; !ok {
			out = append(out, in)
		}
	}
	sort.Strings(out)
	return out, nil
}

// EvalMamdani evaluates every node in dependency order with Mamdani
// inference, feeding each node's defuzzified outputs into descendants'
// inputs alongside the user-supplied values. The result is the union of
// all nodes' fuzzified outputs keyed by group name.
func (n *Network) EvalMamdani(inputs map[string]values.Value) (map[string]fis.MamdaniOutput, error) {
	avail := copyInputs(inputs)
	out := make(map[string]fis.MamdaniOutput)
	for _, i := range n.topoOrder() {
		res, err := n.nodes[i].engine.EvalMamdani(avail)
		if err != nil {
			return nil, err
		}
		for group, mo := range res {
			out[group] = mo
			crisp, err := fis.DefuzzMamdani(mo)
			if err != nil {
				return nil, err
			}
			avail[group] = crisp
		}
	}
	return out, nil
}

// EvalTSK evaluates every node in dependency order with TSK inference,
// feeding crisp outputs downstream. The result is the union of all
// nodes' outputs keyed by group name.
func (n *Network) EvalTSK(inputs map[string]values.Value) (map[string]values.Value, error) {
	avail := copyInputs(inputs)
	out := make(map[string]values.Value)
	for _, i := range n.topoOrder() {
		res, err := n.nodes[i].engine.EvalTSK(avail)
		if err != nil {
			return nil, err
		}
		for group, v := range res {
			out[group] = v
			avail[group] = v
		}
	}
	return out, nil
}

// buildAdjacency derives producer→consumer edges by output/input name
// intersection over every node pair.
func buildAdjacency(nodes []*node) [][]int {
	adj := make([][]int, len(nodes))
	for i, producer := range nodes {
		outs := make(map[string]struct{}, len(producer.outputs))
		for _, o := range producer.outputs {
			outs[o] = struct{}{}
		}
		for j, consumer := range nodes {
			for _, in := range consumer.inputs {
				if _, ok := outs[in]; ok {
					adj[i] = append(adj[i], j)
					break
				}
			}
		}
	}
	return adj
}

// cyclic detects a cycle with an iterative three-color depth-first
// traversal over node indices. A node producing one of its own inputs
// counts: the name intersection makes it a self-edge.
func cyclic(adj [][]int) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(adj))
	var visit func(int) bool
	visit = func(i int) bool {
		color[i] = gray
		for _, j := range adj[i] {
			switch color[j] {
			case gray:
				return true
			case white:
				if visit(j) {
					return true
				}
			}
		}
		color[i] = black
		return false
	}
	for i := range adj {
		if color[i] == white && visit(i) {
			return true
		}
	}
	return false
}

func (n *Network) indegrees() []int {
	indeg := make([]int, len(n.nodes))
	for _, consumers := range n.adj {
		for _, j := range consumers {
			indeg[j]++
		}
	}
	return indeg
}

// topoOrder returns node indices in topological order, ties broken by
// insertion order (lowest index first).
func (n *Network) topoOrder() []int {
	indeg := n.indegrees()
	done := make([]bool, len(n.nodes))
	order := make([]int, 0, len(n.nodes))
	for len(order) < len(n.nodes) {
		for i := range n.nodes {
			if !done[i] && indeg[i] == 0 {
				done[i] = true
				order = append(order, i)
				for _, j := range n.adj[i] {
					indeg[j]--
				}
				break
			}
		}
	}
	return order
}

func (n *Network) collectAncestors(target int, seen map[int]bool) {
	for i := range n.nodes {
		if seen[i] {
			continue
		}
		for _, j := range n.adj[i] {
			if j == target {
				seen[i] = true
				n.collectAncestors(i, seen)
				break
			}
		}
	}
}

func copyInputs(inputs map[string]values.Value) map[string]values.Value {
	out := make(map[string]values.Value, len(inputs))
	for k, v := range inputs {
		out[k] = v
	}
	return out
}
