package autograd

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireInvariantPanic runs fn and checks that it panics with an error
// wrapping ErrInvariant.
func requireInvariantPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.True(t, errors.Is(err, ErrInvariant), "got %v", err)
	}()
	fn()
}

func TestNew_Empty(t *testing.T) {
	g := New()
	assert.Equal(t, 0, g.NodeCount())
	assert.Nil(t, g.Sink())
	assert.False(t, g.Sorted())
	assert.Empty(t, g.Order())
}

func TestNewNode_LeavesDoNotMoveSink(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Weight()
	assert.Nil(t, g.Sink(), "leaves are never an output")
	assert.Equal(t, 2, g.NodeCount())

	c := g.Add(a, b)
	assert.Same(t, c, g.Sink())

	g.Run()
	require.True(t, g.Sorted())

	g.Const(5)
	assert.Same(t, c, g.Sink())
	assert.True(t, g.Sorted(), "a new leaf must not invalidate the order")
}

func TestNewNode_OpInvalidatesOrder(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Add(a, a)
	g.Run()
	require.True(t, g.Sorted())

	c := g.Neg(b)
	assert.False(t, g.Sorted())
	assert.Same(t, c, g.Sink())
}

func TestNode_IDsFollowCreationOrder(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Const(2)
	c := g.Mul(a, b)
	assert.Equal(t, []int{0, 1, 2}, []int{a.ID(), b.ID(), c.ID()})
	assert.Equal(t, []*Node{a, b}, c.Parents())
	assert.Equal(t, OpMul, c.Op())
	assert.True(t, a.IsLeaf())
	assert.False(t, c.IsLeaf())
}

func TestNode_ParentsIsACopy(t *testing.T) {
	g := New()
	a := g.Const(1)
	b := g.Const(2)
	c := g.Add(a, b)

	ps := c.Parents()
	ps[0] = b
	assert.Same(t, a, c.Parents()[0])
}

func TestWeight_UniformInRange(t *testing.T) {
	g := New(WithSeed(99))
	for i := 0; i < 1000; i++ {
		w := g.Weight()
		assert.GreaterOrEqual(t, w.Value(), float32(-1))
		assert.Less(t, w.Value(), float32(1))
		assert.Equal(t, OpWeight, w.Op())
	}
}

func TestWeight_SeededGraphsMatch(t *testing.T) {
	g1 := New(WithSeed(42))
	g2 := New(WithRand(rand.New(rand.NewSource(42))))
	for i := 0; i < 10; i++ {
		assert.Equal(t, g1.Weight().Value(), g2.Weight().Value())
	}
}

func TestWeight_DefaultSeedIsDeterministic(t *testing.T) {
	assert.Equal(t, New().Weight().Value(), New().Weight().Value())
}

func TestSetValue_LeafOnly(t *testing.T) {
	g := New()
	a := g.Const(1)
	w := g.Weight()
	a.SetValue(3)
	w.SetValue(0.25)
	assert.Equal(t, float32(3), a.Value())
	assert.Equal(t, float32(0.25), w.Value())

	s := g.Add(a, w)
	requireInvariantPanic(t, func() { s.SetValue(1) })
}

func TestConstruction_Preconditions(t *testing.T) {
	g := New()
	a := g.Const(1)
	other := New()
	foreign := other.Const(2)

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil first operand", func() { g.Add(nil, a) }},
		{"nil second operand", func() { g.Mul(a, nil) }},
		{"nil in sum", func() { g.Sum(a, nil) }},
		{"empty sum", func() { g.Sum() }},
		{"foreign parent", func() { g.Add(a, foreign) }},
		{"wrong arity", func() { g.newNode(OpAdd, a) }},
		{"leaf with parents", func() { g.newNode(OpConst, a) }},
		{"unknown op", func() { g.newNode(opCount, a) }},
		{"foreign output", func() { g.SetOutput(foreign) }},
		{"nil output", func() { g.SetOutput(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireInvariantPanic(t, tt.fn)
		})
	}
}

func TestConstruction_DoesNotTouchExistingValues(t *testing.T) {
	g := New()
	a := g.Const(2)
	b := g.Const(3)
	g.Div(g.Sub(a, b), g.PowConst(b, 2))
	assert.Equal(t, float32(2), a.Value())
	assert.Equal(t, float32(3), b.Value())
}

func TestConstruction_AuxiliaryNodesAreReal(t *testing.T) {
	g := New()
	a := g.Const(2)
	b := g.Const(3)

	before := g.NodeCount()
	g.Sub(a, b) // neg + add
	assert.Equal(t, before+2, g.NodeCount())

	before = g.NodeCount()
	g.Div(a, b) // const(-1) + pow + mul
	assert.Equal(t, before+3, g.NodeCount())

	before = g.NodeCount()
	g.DivConst(a, 4) // const(4) + const(-1) + pow + mul
	assert.Equal(t, before+4, g.NodeCount())

	before = g.NodeCount()
	g.SubConst(a, 1) // const + neg + add
	assert.Equal(t, before+3, g.NodeCount())
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "sigmoid", OpSigmoid.String())
	assert.Equal(t, "const", OpConst.String())
	assert.Equal(t, "op(200)", Op(200).String())
	assert.True(t, OpWeight.IsLeaf())
	assert.False(t, OpSum.IsLeaf())
	assert.False(t, Op(200).Valid())
}

func TestWeights_OnlyReachable(t *testing.T) {
	g := New()
	w1 := g.Weight()
	w2 := g.Weight()
	unused := g.Weight()
	g.Mul(w1, w2)
	g.Run()

	ws := g.Weights()
	assert.Equal(t, []*Node{w1, w2}, ws)
	assert.NotContains(t, ws, unused)
}
