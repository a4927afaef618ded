// Package expression holds the worked example E = (a + b) / b³.
package expression

import "cgrad/autograd"

// Result is one evaluation of E with its gradients.
type Result struct {
	A     float32 `json:"a"`
	B     float32 `json:"b"`
	Value float32 `json:"value"`
	GradA float32 `json:"grad_a"`
	GradB float32 `json:"grad_b"`
	Nodes int     `json:"nodes"`
}

// Expression keeps the graph for E so its inputs can be changed and the
// graph rerun.
type Expression struct {
	g    *autograd.Graph
	a, b *autograd.Node
	e    *autograd.Node
}

// New builds E on a fresh graph.
func New(a, b float32, opts ...autograd.Option) *Expression {
	g := autograd.New(opts...)
	x := &Expression{g: g, a: g.Const(a), b: g.Const(b)}
	x.e = g.Div(g.Add(x.a, x.b), g.PowConst(x.b, 3))
	return x
}

// SetA changes a. Call Run to see the effect.
func (x *Expression) SetA(v float32) { x.a.SetValue(v) }

// SetB changes b. Call Run to see the effect.
func (x *Expression) SetB(v float32) { x.b.SetValue(v) }

// Run evaluates E and its gradients with respect to a and b.
func (x *Expression) Run() Result {
	x.g.Run()
	return Result{
		A:     x.a.Value(),
		B:     x.b.Value(),
		Value: x.e.Value(),
		GradA: x.a.Grad(),
		GradB: x.b.Grad(),
		Nodes: x.g.NodeCount(),
	}
}

// Evaluate is New(a, b).Run().
func Evaluate(a, b float32) Result {
	return New(a, b).Run()
}
