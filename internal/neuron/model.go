package neuron

import (
	"math"

	"cgrad/autograd"
)

// Model is a single logistic neuron wired into a loss graph for one gate.
//
// The graph computes the mean squared error over the gate's rows:
//
//	loss = 1/N * Σ (sigmoid(x1*w1 + x2*w2 + bias) - target)^2
//
// Inputs and targets are constants, so only W1, W2 and Bias are trainable.
type Model struct {
	Gate  Gate
	Graph *autograd.Graph

	W1   *autograd.Node
	W2   *autograd.Node
	Bias *autograd.Node

	// Outputs holds the neuron's activation node for each row.
	Outputs []*autograd.Node
	Loss    *autograd.Node
}

// NewModel builds the loss graph for gate on g. The loss node is the last
// node with parents, so it becomes the graph output.
func NewModel(g *autograd.Graph, gate Gate) *Model {
	m := &Model{
		Gate:  gate,
		Graph: g,
		W1:    g.Weight(),
		W2:    g.Weight(),
		Bias:  g.Weight(),
	}

	total := g.Const(0)
	for _, row := range gate.Rows {
		x1 := g.Const(row.X1)
		x2 := g.Const(row.X2)

		sum := g.Add(g.Add(g.Mul(x1, m.W1), g.Mul(x2, m.W2)), m.Bias)
		out := g.Sigmoid(sum)
		m.Outputs = append(m.Outputs, out)

		diff := g.Sub(out, g.Const(row.Target))
		total = g.Add(total, g.PowConst(diff, 2))
	}
	m.Loss = g.DivConst(total, float32(len(gate.Rows)))
	return m
}

// Params returns the trainable leaves in a fixed order: w1, w2, bias.
func (m *Model) Params() []*autograd.Node {
	return []*autograd.Node{m.W1, m.W2, m.Bias}
}

// Predict evaluates the neuron on plain inputs with the current weights,
// without touching the graph.
func (m *Model) Predict(x1, x2 float32) float32 {
	return m.Weights().Predict(x1, x2)
}

// Weights snapshots the current parameter values.
func (m *Model) Weights() Weights {
	return Weights{W1: m.W1.Value(), W2: m.W2.Value(), Bias: m.Bias.Value()}
}

// Prediction is the neuron's answer for one truth-table row.
type Prediction struct {
	Sample
	Output  float32 `json:"output"`
	Correct bool    `json:"correct"`
}

// Predictions evaluates every row of the gate.
// A row is correct when the output rounds to the target.
func (m *Model) Predictions() []Prediction {
	out := make([]Prediction, len(m.Gate.Rows))
	for i, row := range m.Gate.Rows {
		p := m.Predict(row.X1, row.X2)
		out[i] = Prediction{
			Sample:  row,
			Output:  p,
			Correct: float32(math.Round(float64(p))) == row.Target,
		}
	}
	return out
}

// Accuracy is the fraction of rows predicted correctly.
func (m *Model) Accuracy() float64 {
	preds := m.Predictions()
	if len(preds) == 0 {
		return 0
	}
	correct := 0
	for _, p := range preds {
		if p.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(preds))
}
