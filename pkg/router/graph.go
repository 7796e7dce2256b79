package router

import (
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Node is one address of the dependency graph
type Node struct {
	Address      workflow.Address   `json:"address"`
	DependsOn    []workflow.Address `json:"depends_on"`
	RequiredBy   []workflow.Address `json:"required_by"`
	Category     string             `json:"category"`
	Subprocesses []workflow.Address `json:"subprocesses"`
	// Inferred is true for nodes that only exist as a dependency target
	Inferred bool `json:"inferred,omitempty"`
}

func (n *Node) clone() Node {
	return Node{
		Address:      n.Address,
		DependsOn:    append([]workflow.Address{}, n.DependsOn...),
		RequiredBy:   append([]workflow.Address{}, n.RequiredBy...),
		Category:     n.Category,
		Subprocesses: append([]workflow.Address{}, n.Subprocesses...),
		Inferred:     n.Inferred,
	}
}

// Edge is a dependency: From depends on To
type Edge struct {
	From workflow.Address `json:"from"`
	To   workflow.Address `json:"to"`
}

// Graph is an immutable dependency graph. Edge lists keep insertion
// order, which fixes BFS tie-breaking and execution order.
type Graph struct {
	nodes    map[workflow.Address]*Node
	order    []workflow.Address
	strategy string
	edges    int
}

// BuildGraph infers the dependency graph of cmap. A nil strategy uses
// SubstringStrategy. For every pair, Y in X.DependsOn iff X in
// Y.RequiredBy.
func BuildGraph(cmap *workflow.CategorizedMap, strategy InferenceStrategy) *Graph {
	if strategy == nil {
		strategy = SubstringStrategy{}
	}

	g := &Graph{
		nodes:    make(map[workflow.Address]*Node, cmap.Len()),
		order:    make([]workflow.Address, 0, cmap.Len()),
		strategy: strategy.Name(),
	}

	// Create every map node first so edges added early are not lost when a
	// target appears later in the map.
	for addr, d := range cmap.All() {
		g.addNode(addr, d.Category, d.Subprocesses, false)
	}

	for addr, d := range cmap.All() {
		for _, dep := range strategy.Infer(addr, d, cmap) {
			if dep == addr {
				continue
			}
			if _, ok := g.nodes[dep]; !ok {
				g.addNode(dep, "", nil, true)
			}
			g.addEdge(addr, dep)
		}
	}

	return g
}

func (g *Graph) addNode(addr workflow.Address, category string, subs []workflow.Address, inferred bool) {
	g.nodes[addr] = &Node{
		Address:      addr,
		DependsOn:    []workflow.Address{},
		RequiredBy:   []workflow.Address{},
		Category:     category,
		Subprocesses: append([]workflow.Address{}, subs...),
		Inferred:     inferred,
	}
	g.order = append(g.order, addr)
}

func (g *Graph) addEdge(from, to workflow.Address) {
	src := g.nodes[from]
	for _, existing := range src.DependsOn {
		if existing == to {
			return
		}
	}
	src.DependsOn = append(src.DependsOn, to)
	g.nodes[to].RequiredBy = append(g.nodes[to].RequiredBy, from)
	g.edges++
}

// Strategy returns the name of the inference strategy used
func (g *Graph) Strategy() string {
	return g.strategy
}

// Has reports whether addr is a node
func (g *Graph) Has(addr workflow.Address) bool {
	if g == nil {
		return false
	}
	_, ok := g.nodes[addr]
	return ok
}

// Node returns a copy of the node for addr
func (g *Graph) Node(addr workflow.Address) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	n, ok := g.nodes[addr]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// DependsOn returns the direct dependencies of addr
func (g *Graph) DependsOn(addr workflow.Address) []workflow.Address {
	if n, ok := g.Node(addr); ok {
		return n.DependsOn
	}
	return []workflow.Address{}
}

// RequiredBy returns the direct dependents of addr
func (g *Graph) RequiredBy(addr workflow.Address) []workflow.Address {
	if n, ok := g.Node(addr); ok {
		return n.RequiredBy
	}
	return []workflow.Address{}
}

// Addresses returns all nodes in creation order
func (g *Graph) Addresses() []workflow.Address {
	if g == nil {
		return nil
	}
	return append([]workflow.Address(nil), g.order...)
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// EdgeCount returns the number of depends_on edges
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Edges lists every dependency in node order
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	edges := make([]Edge, 0, g.edges)
	for _, addr := range g.order {
		for _, dep := range g.nodes[addr].DependsOn {
			edges = append(edges, Edge{From: addr, To: dep})
		}
	}
	return edges
}

// Nodes returns copies of all nodes in creation order
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	out := make([]Node, 0, len(g.order))
	for _, addr := range g.order {
		out = append(out, g.nodes[addr].clone())
	}
	return out
}
