package router

import (
	"fmt"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

const (
	white = iota // unvisited
	grey         // on the DFS stack
	black        // finished
)

// ExecutionOrder linearises target and its transitive dependencies,
// dependencies first. Each dependency list is expanded in stored order
// and an address appears once, at its first completion. An address that
// is not in the graph orders as itself. A cycle reachable from target
// returns a *CycleError.
func (g *Graph) ExecutionOrder(target workflow.Address) ([]workflow.Address, error) {
	if !g.Has(target) {
		return []workflow.Address{target}, nil
	}

	type frame struct {
		addr workflow.Address
		next int
	}

	color := map[workflow.Address]int{target: grey}
	stack := []frame{{addr: target}}
	order := make([]workflow.Address, 0)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := g.nodes[top.addr].DependsOn

		if top.next >= len(deps) {
			color[top.addr] = black
			order = append(order, top.addr)
			stack = stack[:len(stack)-1]
			continue
		}

		dep := deps[top.next]
		top.next++

		switch color[dep] {
		case white:
			color[dep] = grey
			stack = append(stack, frame{addr: dep})
		case grey:
			cycle := []workflow.Address{}
			for i := range stack {
				if stack[i].addr == dep {
					for _, f := range stack[i:] {
						cycle = append(cycle, f.addr)
					}
					break
				}
			}
			cycle = append(cycle, dep)
			return nil, &CycleError{Target: target, Cycle: cycle}
		}
	}

	return order, nil
}

// TopologicalOrder returns every node with dependencies before their
// dependents, using Kahn's algorithm. Nodes become ready in graph order.
func (g *Graph) TopologicalOrder() ([]workflow.Address, error) {
	if g.NodeCount() == 0 {
		return []workflow.Address{}, nil
	}

	pending := make(map[workflow.Address]int, len(g.order))
	queue := make([]workflow.Address, 0)
	for _, addr := range g.order {
		pending[addr] = len(g.nodes[addr].DependsOn)
		if pending[addr] == 0 {
			queue = append(queue, addr)
		}
	}

	sorted := make([]workflow.Address, 0, len(g.order))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, dependent := range g.nodes[current].RequiredBy {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, fmt.Errorf("%w: %d of %d addresses are on or behind a cycle",
			ErrCyclicDependency, len(g.order)-len(sorted), len(g.order))
	}
	return sorted, nil
}

// DetectCycles finds cycles along DependsOn edges with three-colour DFS.
// Each back edge yields one cycle, listed from the re-entered address
// around to itself.
func (g *Graph) DetectCycles() [][]workflow.Address {
	cycles := make([][]workflow.Address, 0)
	if g == nil {
		return cycles
	}

	color := make(map[workflow.Address]int, len(g.order))
	var stack []workflow.Address

	var visit func(addr workflow.Address)
	visit = func(addr workflow.Address) {
		color[addr] = grey
		stack = append(stack, addr)

		for _, dep := range g.nodes[addr].DependsOn {
			switch color[dep] {
			case white:
				visit(dep)
			case grey:
				cycles = append(cycles, extractCycle(stack, dep))
			}
		}

		stack = stack[:len(stack)-1]
		color[addr] = black
	}

	for _, addr := range g.order {
		if color[addr] == white {
			visit(addr)
		}
	}
	return cycles
}

func extractCycle(stack []workflow.Address, start workflow.Address) []workflow.Address {
	for i, addr := range stack {
		if addr == start {
			cycle := append([]workflow.Address{}, stack[i:]...)
			return append(cycle, start)
		}
	}
	return []workflow.Address{start}
}

// IsAcyclic reports whether the graph has no dependency cycle
func (g *Graph) IsAcyclic() bool {
	_, err := g.TopologicalOrder()
	return err == nil
}
