package autograd

// Node is one scalar in the computation graph.
//
// A node is a "number with memory":
//   - value is the number produced by the last forward pass.
//   - grad is how much the graph output changes if this number changes a little.
//   - parents are the nodes this one was computed from.
//
// Nodes are created only through a Graph and live as long as it does.
type Node struct {
	op      Op
	value   float32
	grad    float32
	parents []*Node

	id    int
	graph *Graph
}

// Op returns the operation that produced n.
func (n *Node) Op() Op { return n.op }

// Value returns the value cached by the last forward pass
// (or by construction, if the graph has not been run since).
func (n *Node) Value() float32 { return n.value }

// Grad returns the gradient accumulated by the last backward pass.
func (n *Node) Grad() float32 { return n.grad }

// ID returns the node's index in its graph. IDs follow creation order.
func (n *Node) ID() int { return n.id }

// IsLeaf reports whether n has no parents (a const or a weight).
func (n *Node) IsLeaf() bool { return n.op.IsLeaf() }

// Parents returns a copy of n's parents in operand order.
func (n *Node) Parents() []*Node {
	out := make([]*Node, len(n.parents))
	copy(out, n.parents)
	return out
}

// SetValue overwrites the value of a leaf.
//
// Training loops use this to apply updates, e.g.
//
//	w.SetValue(w.Value() - lr*w.Grad())
//
// The next Run propagates the new value. Setting a computed node panics,
// since the next forward pass would silently overwrite it.
func (n *Node) SetValue(v float32) {
	if !n.op.IsLeaf() {
		panicf("cannot set value of %s node %d: only const and weight leaves are assignable", n.op, n.id)
	}
	n.value = v
}

func (n *Node) parent(i int) *Node {
	p := n.parents[i]
	if p == nil {
		panicf("%s node %d: parent %d is unset", n.op, n.id, i)
	}
	return p
}
