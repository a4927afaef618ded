package autograd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []*Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

// requireTopological checks that every parent sits strictly before its child.
func requireTopological(t *testing.T, order []*Node) {
	t.Helper()
	pos := make(map[*Node]int, len(order))
	for i, n := range order {
		_, dup := pos[n]
		require.False(t, dup, "node %d appears twice", n.ID())
		pos[n] = i
	}
	for i, n := range order {
		for _, p := range n.Parents() {
			pp, ok := pos[p]
			require.True(t, ok, "parent %d of node %d missing from order", p.ID(), n.ID())
			require.Less(t, pp, i, "parent %d must precede node %d", p.ID(), n.ID())
		}
	}
}

func TestSort_DepthFirstPostOrder(t *testing.T) {
	g := New()
	a := g.Const(6)       // 0
	b := g.Const(-3)      // 1
	c := g.Add(a, b)      // 2
	d := g.PowConst(b, 3) // 3: const 3, 4: pow
	e := g.Div(c, d)      // 5: const -1, 6: pow, 7: mul
	require.Equal(t, 7, e.ID())

	g.Sort()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, ids(g.Order()))
	requireTopological(t, g.Order())
}

func TestSort_DiamondVisitedOnce(t *testing.T) {
	g := New()
	x := g.Const(2)
	shared := g.Exp(x)
	left := g.Mul(shared, g.Const(3))
	right := g.Tanh(shared)
	out := g.Add(left, right)

	g.Sort()
	order := g.Order()
	requireTopological(t, order)
	assert.Len(t, order, 6)
	assert.Same(t, out, order[len(order)-1])
}

func TestSort_ExcludesAbandonedComputation(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Const(2)
	first := g.Add(a, b)
	c := g.Const(3)
	second := g.Mul(c, c)

	g.Run()
	order := g.Order()
	assert.NotContains(t, order, first)
	assert.NotContains(t, order, a)
	assert.Equal(t, []*Node{c, second}, order)
	assert.Equal(t, float32(0), a.Grad())
	assert.Equal(t, float32(6), c.Grad())
}

func TestSort_DeepChainDoesNotRecurse(t *testing.T) {
	const depth = 50000
	g := New()
	x := g.Const(1)
	n := x
	for i := 0; i < depth; i++ {
		n = g.Neg(n)
	}
	g.Run()
	assert.Len(t, g.Order(), depth+1)
	assert.Equal(t, float32(1), n.Value())
	assert.Equal(t, float32(1), x.Grad())
}

func TestSort_NoOutputPanics(t *testing.T) {
	requireInvariantPanic(t, func() { New().Run() })

	g := New()
	g.Const(1)
	g.Weight()
	requireInvariantPanic(t, g.Run)
}

func TestSort_CachedUntilStructuralChange(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Exp(a)
	g.Sort()
	first := g.Order()

	a.SetValue(2)
	g.Sort()
	assert.Equal(t, first, g.Order())

	c := g.Log(b)
	g.Sort()
	assert.Equal(t, append(first, c), g.Order())
}

func TestSort_RandomGraphsAreTopological(t *testing.T) {
	g := New(WithSeed(3))
	pool := []*Node{g.Weight(), g.Weight(), g.Const(0.5)}
	for i := 0; i < 300; i++ {
		a := pool[(i*7)%len(pool)]
		b := pool[(i*13+5)%len(pool)]
		var n *Node
		switch i % 4 {
		case 0:
			n = g.Add(a, b)
		case 1:
			n = g.Mul(a, b)
		case 2:
			n = g.Tanh(a)
		default:
			n = g.Sum(a, b, pool[i%len(pool)])
		}
		pool = append(pool, n)
	}
	g.Run()
	requireTopological(t, g.Order())
	assert.Same(t, g.Sink(), g.Order()[len(g.Order())-1])
}
