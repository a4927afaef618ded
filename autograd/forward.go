package autograd

import "math"

// forward recomputes every computed node in cached order. Parents come before
// children, so one pass is enough. Leaves keep whatever value they hold, which
// is how SetValue takes effect.
func (g *Graph) forward() {
	for _, n := range g.order {
		evaluate(n)
	}
}

// evaluate sets n.value from its parents' current values.
func evaluate(n *Node) {
	switch n.op {
	case OpConst, OpWeight:
	case OpAdd:
		n.value = n.parent(0).value + n.parent(1).value
	case OpSum:
		var total float32
		for i := range n.parents {
			total += n.parent(i).value
		}
		n.value = total
	case OpMul:
		n.value = n.parent(0).value * n.parent(1).value
	case OpExp:
		n.value = exp32(n.parent(0).value)
	case OpPow:
		n.value = pow32(n.parent(0).value, n.parent(1).value)
	case OpNeg:
		n.value = -n.parent(0).value
	case OpLog:
		n.value = log32(n.parent(0).value)
	case OpTanh:
		n.value = float32(math.Tanh(float64(n.parent(0).value)))
	case OpSigmoid:
		n.value = Logistic(n.parent(0).value)
	case OpRelu:
		n.value = 0
		if v := n.parent(0).value; v > 0 {
			n.value = v
		}
	default:
		panicf("cannot evaluate node %d: unknown op %s", n.id, n.op)
	}
}

// Logistic is the sigmoid function 1 / (1 + e^-x) on a plain float.
// Callers use it to evaluate a trained model without building a graph.
func Logistic(x float32) float32 {
	return 1 / (1 + exp32(-x))
}

func exp32(x float32) float32 { return float32(math.Exp(float64(x))) }

func log32(x float32) float32 { return float32(math.Log(float64(x))) }

func pow32(x, y float32) float32 { return float32(math.Pow(float64(x), float64(y))) }
