package autograd

// Derived operations are compositions of the primitives. The helper nodes
// they need (constants, negations, reciprocals) are real graph nodes.

// Sub creates a - b as a + (-b).
func (g *Graph) Sub(a, b *Node) *Node {
	return g.Add(a, g.Neg(b))
}

// Div creates a / b as a * b^-1.
func (g *Graph) Div(a, b *Node) *Node {
	return g.Mul(a, g.PowConst(b, -1))
}

// PowConst creates a^k.
func (g *Graph) PowConst(a *Node, k float32) *Node {
	return g.Pow(a, g.Const(k))
}

// AddConst creates a + k.
func (g *Graph) AddConst(a *Node, k float32) *Node {
	return g.Add(a, g.Const(k))
}

// SubConst creates a - k.
func (g *Graph) SubConst(a *Node, k float32) *Node {
	return g.Sub(a, g.Const(k))
}

// MulConst creates a * k.
func (g *Graph) MulConst(a *Node, k float32) *Node {
	return g.Mul(a, g.Const(k))
}

// DivConst creates a / k.
func (g *Graph) DivConst(a *Node, k float32) *Node {
	return g.Div(a, g.Const(k))
}
