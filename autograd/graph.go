package autograd

import (
	"log/slog"
	"math/rand"
)

// DefaultSeed seeds the weight initialiser when no random source is given,
// so two graphs built the same way start from the same weights.
const DefaultSeed int64 = 1

// Graph owns every node created through it.
//
// It also remembers:
//   - sink: the output a run differentiates. By default this is the most
//     recently created node that has parents.
//   - order: the cached topological order for sink, valid while sorted is true.
type Graph struct {
	nodes  []*Node
	order  []*Node
	sorted bool
	sink   *Node

	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithRand sets the random source used by Weight.
func WithRand(r *rand.Rand) Option {
	return func(g *Graph) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithSeed seeds a private random source for Weight.
func WithSeed(seed int64) Option {
	return func(g *Graph) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the logger. The graph only logs at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(DefaultSeed))
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// NodeCount returns how many nodes the graph has allocated, reachable or not.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Sink returns the node the next run differentiates, or nil if the graph has
// no node with parents yet.
func (g *Graph) Sink() *Node { return g.sink }

// Sorted reports whether the cached topological order is current.
func (g *Graph) Sorted() bool { return g.sorted }

// SetOutput names the node that the next run treats as its output.
//
// Changing the output drops the cached order. Creating another node with
// parents afterwards moves the output again, so call this after building.
func (g *Graph) SetOutput(n *Node) {
	g.own(n)
	if g.sink == n {
		return
	}
	g.sink = n
	g.sorted = false
	g.logger.Debug("graph output set", slog.Int("node", n.id), slog.String("op", n.op.String()))
}

// Order returns a copy of the cached topological order. It is empty until the
// first run (or Sort) and stale after structural changes.
func (g *Graph) Order() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// Weights returns the weight leaves that feed the current output, in
// topological order. Weights outside the cached order are not included.
func (g *Graph) Weights() []*Node {
	var out []*Node
	for _, n := range g.order {
		if n.op == OpWeight {
			out = append(out, n)
		}
	}
	return out
}

// newNode allocates a node and wires its parents.
// Only nodes with parents become the sink; leaves cannot be an output.
func (g *Graph) newNode(op Op, parents ...*Node) *Node {
	checkArity(op, len(parents))
	for i, p := range parents {
		if p == nil {
			panicf("%s: parent %d is nil", op, i)
		}
		g.own(p)
	}

	n := &Node{
		op:    op,
		id:    len(g.nodes),
		graph: g,
	}
	if len(parents) > 0 {
		n.parents = make([]*Node, len(parents))
		copy(n.parents, parents)
	}
	g.nodes = append(g.nodes, n)

	if len(n.parents) > 0 {
		g.sink = n
		g.sorted = false
	}
	return n
}

func (g *Graph) own(n *Node) {
	if n == nil {
		panicf("nil node")
	}
	if n.graph != g {
		panicf("%s node %d belongs to a different graph", n.op, n.id)
	}
}
