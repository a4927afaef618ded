package server

import "cgrad/internal/neuron"

// TrainRequest is the payload for POST /api/train.
//
// Only gate is required; omitted fields fall back to the server's
// configured training options.
type TrainRequest struct {
	Gate         string   `json:"gate" validate:"required,oneof=or and xor nand nor"`
	Epochs       *int     `json:"epochs,omitempty" validate:"omitempty,gte=0,lte=100000"`
	LearningRate *float32 `json:"learning_rate,omitempty" validate:"omitempty,gt=0"`
	Optimizer    string   `json:"optimizer,omitempty" validate:"omitempty,oneof=sgd adam"`
	Seed         *int64   `json:"seed,omitempty"`
}

// TrainResponse reports a finished training run.
type TrainResponse struct {
	*neuron.Result
}

// PredictRequest asks the latest neuron trained for gate to classify (x1, x2).
type PredictRequest struct {
	Gate string   `json:"gate" validate:"required,oneof=or and xor nand nor"`
	X1   *float32 `json:"x1" validate:"required"`
	X2   *float32 `json:"x2" validate:"required"`
}

// PredictResponse is the neuron's output for one input pair.
//
// Output is the raw sigmoid activation; Class rounds it to 0 or 1.
type PredictResponse struct {
	Gate    string         `json:"gate"`
	RunID   string         `json:"run_id"`
	X1      float32        `json:"x1"`
	X2      float32        `json:"x2"`
	Output  float32        `json:"output"`
	Class   int            `json:"class"`
	Weights neuron.Weights `json:"weights"`
}

// ExpressionRequest supplies a and b for E = (a + b) / b³.
type ExpressionRequest struct {
	A *float32 `json:"a" validate:"required"`
	B *float32 `json:"b" validate:"required,ne=0"`
}

// GateInfo describes one gate for GET /api/gates.
type GateInfo struct {
	neuron.Gate
	Trained bool `json:"trained"`
}

// GatesResponse lists every gate.
type GatesResponse struct {
	Gates []GateInfo `json:"gates"`
}
