package autograd

// zeroGrads clears the gradient of every node in the cached order.
func (g *Graph) zeroGrads() {
	for _, n := range g.order {
		n.grad = 0
	}
}

// backward seeds the output with dOutput/dOutput = 1 and walks the cached
// order in reverse, adding each node's contribution to its parents.
//
// Contributions are added, never assigned: a node used by several consumers
// collects the sum over all of them (the multivariate chain rule).
func (g *Graph) backward() {
	g.sink.grad = 1
	for i := len(g.order) - 1; i >= 0; i-- {
		propagate(g.order[i])
	}
}

// propagate distributes n.grad to n's parents using the local derivative of n.op.
func propagate(n *Node) {
	grad := n.grad
	switch n.op {
	case OpConst, OpWeight:
	case OpAdd:
		n.parent(0).grad += grad
		n.parent(1).grad += grad
	case OpSum:
		for i := range n.parents {
			n.parent(i).grad += grad
		}
	case OpMul:
		a, b := n.parent(0), n.parent(1)
		a.grad += b.value * grad
		b.grad += a.value * grad
	case OpExp:
		n.parent(0).grad += n.value * grad
	case OpPow:
		a, b := n.parent(0), n.parent(1)
		// ln(a) is NaN for a <= 0; only the exponent's gradient is affected.
		a.grad += b.value * pow32(a.value, b.value-1) * grad
		b.grad += log32(a.value) * pow32(a.value, b.value) * grad
	case OpNeg:
		n.parent(0).grad -= grad
	case OpLog:
		a := n.parent(0)
		a.grad += 1 / a.value * grad
	case OpTanh:
		n.parent(0).grad += (1 - n.value*n.value) * grad
	case OpSigmoid:
		n.parent(0).grad += n.value * (1 - n.value) * grad
	case OpRelu:
		if n.value > 0 {
			n.parent(0).grad += grad
		}
	default:
		panicf("cannot differentiate node %d: unknown op %s", n.id, n.op)
	}
}
