package autograd

import "log/slog"

// frame is one pending node on the DFS work stack; next is the index of the
// parent to visit next.
type frame struct {
	node *Node
	next int
}

// Sort rebuilds the cached topological order from the current output if it is
// stale. Run calls this itself; it is exported for callers that want to inspect
// Order or Weights before running.
func (g *Graph) Sort() {
	if g.sorted {
		return
	}
	if g.sink == nil {
		panicf("graph has no output: create a node with parents or call SetOutput")
	}
	g.order = topoSort(g.sink, len(g.nodes))
	g.sorted = true
	g.logger.Debug("graph sorted",
		slog.Int("output", g.sink.id),
		slog.Int("reachable", len(g.order)),
		slog.Int("nodes", len(g.nodes)),
	)
}

// topoSort returns every node reachable from root, parents first.
//
// It is a depth-first post-order: a node is marked on first visit, its parents
// are visited in operand order, then it is appended. A node reached again via
// another path (a reused subexpression) is skipped, so each node appears once.
// An explicit stack replaces recursion so deep chains cannot overflow.
func topoSort(root *Node, nodeCount int) []*Node {
	visited := make([]bool, nodeCount)
	order := make([]*Node, 0, nodeCount)

	visited[root.id] = true
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.parents) {
			p := top.node.parent(top.next)
			top.next++
			if !visited[p.id] {
				visited[p.id] = true
				stack = append(stack, frame{node: p})
			}
			continue
		}

		if len(order) == nodeCount {
			panicf("topological order exceeds %d nodes", nodeCount)
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}
