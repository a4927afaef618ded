// Package autograd is a small scalar reverse-mode automatic differentiation engine.
//
// Think of a Graph as a notebook of calculations. Every operation writes one new
// line (a Node) that remembers which earlier lines it was computed from. Running
// the graph does two things:
//
//  1. Forward: recompute every line from the lines it depends on, in order.
//  2. Backward: starting from the last line (the output), send "how much does the
//     output change if this number changes a little" back to every earlier line.
//
// Basic usage:
//
//	g := autograd.New(autograd.WithSeed(7))
//	a := g.Const(6)
//	b := g.Const(-3)
//	e := g.Div(g.Add(a, b), g.PowConst(b, 3))
//	g.Run()
//	fmt.Println(e.Value(), a.Grad())
//
//	a.SetValue(5) // leaves may be changed between runs
//	g.Run()       // the cached order is reused
//
// The output of a run is the most recently created node that has parents, unless
// one is named explicitly with SetOutput or RunOutput.
//
// A Graph is not safe for concurrent use. Use one graph per goroutine.
//
// Misuse, such as a nil parent or writing a computed node, is a programming
// error and panics with an error wrapping ErrInvariant.
package autograd
