package autograd

// Run evaluates the graph and computes gradients of its output.
//
// Steps:
//  1. Rebuild the topological order if the graph changed since the last run.
//  2. Forward pass: recompute every reachable value.
//  3. Clear gradients, then backward pass from the output.
//
// Calling Run again after only changing leaf values reuses the cached order.
// Nodes not reachable from the output keep their old values and gradients.
func (g *Graph) Run() {
	g.Sort()
	g.forward()
	g.zeroGrads()
	g.backward()
}

// RunOutput makes out the graph output and runs the graph.
func (g *Graph) RunOutput(out *Node) {
	g.SetOutput(out)
	g.Run()
}
