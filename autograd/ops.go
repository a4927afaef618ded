package autograd

// Each constructor below appends one node and gives it a value straight away,
// so results can be read before the first Run.

// Const creates a constant leaf.
func (g *Graph) Const(v float32) *Node {
	n := g.newNode(OpConst)
	n.value = v
	return n
}

// Weight creates a trainable leaf initialised uniformly in [-1, 1).
func (g *Graph) Weight() *Node {
	n := g.newNode(OpWeight)
	n.value = g.rng.Float32()*2 - 1
	return n
}

// Add creates a + b.
func (g *Graph) Add(a, b *Node) *Node { return g.apply(OpAdd, a, b) }

// Mul creates a * b.
func (g *Graph) Mul(a, b *Node) *Node { return g.apply(OpMul, a, b) }

// Sum creates the sum of all operands. At least one is required.
func (g *Graph) Sum(nodes ...*Node) *Node { return g.apply(OpSum, nodes...) }

// Neg creates -a.
func (g *Graph) Neg(a *Node) *Node { return g.apply(OpNeg, a) }

// Exp creates e^a.
func (g *Graph) Exp(a *Node) *Node { return g.apply(OpExp, a) }

// Pow creates a^b for a real exponent b.
// The gradient with respect to b is only defined for a > 0.
func (g *Graph) Pow(a, b *Node) *Node { return g.apply(OpPow, a, b) }

// Log creates the natural logarithm of a.
func (g *Graph) Log(a *Node) *Node { return g.apply(OpLog, a) }

// Tanh creates tanh(a).
func (g *Graph) Tanh(a *Node) *Node { return g.apply(OpTanh, a) }

// Sigmoid creates 1 / (1 + e^-a).
func (g *Graph) Sigmoid(a *Node) *Node { return g.apply(OpSigmoid, a) }

// Relu creates max(a, 0).
func (g *Graph) Relu(a *Node) *Node { return g.apply(OpRelu, a) }

func (g *Graph) apply(op Op, parents ...*Node) *Node {
	n := g.newNode(op, parents...)
	evaluate(n)
	return n
}
