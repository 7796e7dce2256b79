package router

import (
	"container/list"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// ForwardPath finds the shortest path from start to target following
// RequiredBy edges only, i.e. from a process towards the processes that
// depend on it. Ties go to the path discovered first, which follows the
// order RequiredBy lists were filled during construction.
func (g *Graph) ForwardPath(start, target workflow.Address) ([]workflow.Address, bool) {
	if !g.Has(start) || !g.Has(target) {
		return nil, false
	}
	if start == target {
		return []workflow.Address{start}, true
	}

	parent := map[workflow.Address]workflow.Address{start: start}
	queue := list.New()
	queue.PushBack(start)

	for queue.Len() > 0 {
		current := queue.Remove(queue.Front()).(workflow.Address)

		for _, next := range g.nodes[current].RequiredBy {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == target {
				return reconstructPath(parent, start, target), true
			}
			queue.PushBack(next)
		}
	}

	return nil, false
}

// reconstructPath walks parent pointers back from target
func reconstructPath(parent map[workflow.Address]workflow.Address, start, target workflow.Address) []workflow.Address {
	path := []workflow.Address{target}
	for node := target; node != start; {
		node = parent[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
