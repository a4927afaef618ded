package neuron

import (
	"errors"
	"fmt"
	"math"

	"cgrad/autograd"
)

// ErrUnknownOptimizer is returned for optimizer names other than "sgd" and "adam".
var ErrUnknownOptimizer = errors.New("unknown optimizer")

// Optimizer updates weight leaves in place from their current gradients.
// Step is called after a run, when every gradient is fresh.
type Optimizer interface {
	Name() string
	Step(params []*autograd.Node)
}

// NewOptimizer returns the optimizer registered under name.
func NewOptimizer(name string, learningRate float32) (Optimizer, error) {
	switch name {
	case "", "sgd":
		return &SGD{LearningRate: learningRate}, nil
	case "adam":
		return NewAdam(learningRate), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
	}
}

// SGD is plain gradient descent: w -= lr * grad.
type SGD struct {
	LearningRate float32
}

// Name implements Optimizer.
func (s *SGD) Name() string { return "sgd" }

// Step implements Optimizer.
func (s *SGD) Step(params []*autograd.Node) {
	for _, p := range params {
		p.SetValue(p.Value() - s.LearningRate*p.Grad())
	}
}

// Adam keeps running averages of each weight's gradient (M) and squared
// gradient (V) and scales the step by their bias-corrected ratio.
//
// Moments are tracked per position in the params slice, so Step must always be
// given the weights in the same order.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Eps          float64

	m     []float64
	v     []float64
	steps int
}

// NewAdam returns Adam with β1 = 0.85, β2 = 0.99 and ε = 1e-8.
func NewAdam(learningRate float32) *Adam {
	return &Adam{
		LearningRate: float64(learningRate),
		Beta1:        0.85,
		Beta2:        0.99,
		Eps:          1e-8,
	}
}

// Name implements Optimizer.
func (a *Adam) Name() string { return "adam" }

// Steps returns how many updates have been applied.
func (a *Adam) Steps() int { return a.steps }

// Step implements Optimizer.
func (a *Adam) Step(params []*autograd.Node) {
	if len(a.m) != len(params) {
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
		a.steps = 0
	}
	a.steps++

	for i, p := range params {
		grad := float64(p.Grad())
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*grad
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*grad*grad

		// Bias-corrected first and second moments.
		mHat := a.m[i] / (1 - math.Pow(a.Beta1, float64(a.steps)))
		vHat := a.v[i] / (1 - math.Pow(a.Beta2, float64(a.steps)))

		p.SetValue(p.Value() - float32(a.LearningRate*mHat/(math.Sqrt(vHat)+a.Eps)))
	}
}
