package autograd

import "fmt"

// Op identifies the operation that produced a node.
type Op uint8

const (
	OpConst Op = iota
	OpWeight

	OpAdd
	OpSum
	OpMul
	OpExp
	OpPow
	OpNeg
	OpLog
	OpTanh
	OpSigmoid
	OpRelu

	opCount
)

// variadic marks ops whose parent count is chosen at construction time.
const variadic = -1

var opNames = [opCount]string{
	OpConst:   "const",
	OpWeight:  "weight",
	OpAdd:     "add",
	OpSum:     "sum",
	OpMul:     "mul",
	OpExp:     "exp",
	OpPow:     "pow",
	OpNeg:     "neg",
	OpLog:     "log",
	OpTanh:    "tanh",
	OpSigmoid: "sigmoid",
	OpRelu:    "relu",
}

var opArity = [opCount]int{
	OpConst:   0,
	OpWeight:  0,
	OpAdd:     2,
	OpSum:     variadic,
	OpMul:     2,
	OpExp:     1,
	OpPow:     2,
	OpNeg:     1,
	OpLog:     1,
	OpTanh:    1,
	OpSigmoid: 1,
	OpRelu:    1,
}

// String returns the lower-case op name, e.g. "sigmoid".
func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// IsLeaf reports whether nodes of this op have no parents.
// Only leaf values may be assigned from outside the graph.
func (o Op) IsLeaf() bool {
	return o == OpConst || o == OpWeight
}

// Valid reports whether o is a known op.
func (o Op) Valid() bool {
	return o < opCount
}

// checkArity panics when n parents is not a legal count for op.
func checkArity(op Op, n int) {
	if !op.Valid() {
		panicf("unknown op %s", op)
	}
	want := opArity[op]
	if want == variadic {
		if n < 1 {
			panicf("%s needs at least one operand", op)
		}
		return
	}
	if n != want {
		panicf("%s takes %d parents, got %d", op, want, n)
	}
}
