package neuron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cgrad/autograd"
)

var (
	// ErrNilContext is returned when a nil context is passed in.
	ErrNilContext = errors.New("context must not be nil")

	// ErrInvalidOptions is returned when training options are out of range.
	ErrInvalidOptions = errors.New("invalid training options")
)

var (
	tracer = otel.Tracer("cgrad.neuron")
	meter  = otel.Meter("cgrad.neuron")
)

// Options controls one training run.
type Options struct {
	Epochs       int
	LearningRate float32
	Optimizer    string
	Seed         int64

	// LogEvery logs progress at debug level every N epochs. Zero disables it.
	LogEvery int

	// Parallelism bounds TrainAll. Zero or less means one goroutine per gate.
	Parallelism int
}

// DefaultOptions mirrors the classic single-neuron demo: 100 epochs of plain
// gradient descent with learning rate 1.
func DefaultOptions() Options {
	return Options{
		Epochs:       100,
		LearningRate: 1.0,
		Optimizer:    "sgd",
		Seed:         autograd.DefaultSeed,
	}
}

// Validate checks that the options can drive a run.
func (o Options) Validate() error {
	if o.Epochs < 0 {
		return fmt.Errorf("%w: epochs must be >= 0, got %d", ErrInvalidOptions, o.Epochs)
	}
	if o.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be > 0, got %g", ErrInvalidOptions, o.LearningRate)
	}
	if _, err := NewOptimizer(o.Optimizer, o.LearningRate); err != nil {
		return err
	}
	return nil
}

// Result summarises one training run.
type Result struct {
	RunID        string        `json:"run_id"`
	Gate         string        `json:"gate"`
	Optimizer    string        `json:"optimizer"`
	LearningRate float32       `json:"learning_rate"`
	Epochs       int           `json:"epochs"`
	Seed         int64         `json:"seed"`
	InitialLoss  float32       `json:"initial_loss"`
	FinalLoss    float32       `json:"final_loss"`
	Losses       []float32     `json:"losses"`
	Weights      Weights       `json:"weights"`
	Predictions  []Prediction  `json:"predictions"`
	Accuracy     float64       `json:"accuracy"`
	GraphNodes   int           `json:"graph_nodes"`
	Duration     time.Duration `json:"duration"`
}

// Weights are the trained parameter values.
type Weights struct {
	W1   float32 `json:"w1"`
	W2   float32 `json:"w2"`
	Bias float32 `json:"bias"`
}

// Predict evaluates sigmoid(x1*w1 + x2*w2 + bias).
func (w Weights) Predict(x1, x2 float32) float32 {
	return autograd.Logistic(x1*w.W1 + x2*w.W2 + w.Bias)
}

// Trainer fits single neurons to gate truth tables.
//
// Every call to Train builds its own graph, so a Trainer may be shared between
// goroutines: graphs are never shared.
type Trainer struct {
	opts   Options
	logger *slog.Logger

	metricsOnce   sync.Once
	epochsTotal   metric.Int64Counter
	finalLoss     metric.Float64Histogram
	trainDuration metric.Float64Histogram
}

// NewTrainer creates a trainer. A nil logger uses slog.Default().
func NewTrainer(opts Options, logger *slog.Logger) (*Trainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{opts: opts, logger: logger}, nil
}

// Options returns the trainer's options.
func (t *Trainer) Options() Options { return t.opts }

// WithOptions returns a trainer sharing this one's logger but using opts.
func (t *Trainer) WithOptions(opts Options) (*Trainer, error) {
	return NewTrainer(opts, t.logger)
}

// initMetrics lazily creates the instruments. Failures are logged and the
// run continues without the missing instrument.
func (t *Trainer) initMetrics() {
	t.metricsOnce.Do(func() {
		var initErrors []string
		var err error

		t.epochsTotal, err = meter.Int64Counter("neuron_epochs_total",
			metric.WithDescription("Gradient descent epochs completed"),
		)
		if err != nil {
			initErrors = append(initErrors, "epochs_total: "+err.Error())
		}

		t.finalLoss, err = meter.Float64Histogram("neuron_loss",
			metric.WithDescription("Mean squared error at the end of a training run"),
		)
		if err != nil {
			initErrors = append(initErrors, "loss: "+err.Error())
		}

		t.trainDuration, err = meter.Float64Histogram("neuron_train_duration_seconds",
			metric.WithDescription("Wall time of a training run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "train_duration: "+err.Error())
		}

		if len(initErrors) > 0 {
			t.logger.Error("failed to initialize some neuron metrics",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}

// Train fits a fresh neuron to gate.
//
// It builds the loss graph, runs it once, then repeats Epochs times:
// optimizer step on the graph's weights, run. Losses holds the loss before
// training followed by the loss after each epoch.
//
// If ctx is cancelled between epochs, Train returns the partial result and
// the context error.
func (t *Trainer) Train(ctx context.Context, gate Gate) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(gate.Rows) == 0 {
		return nil, fmt.Errorf("%w: gate %q has no rows", ErrInvalidOptions, gate.Name)
	}
	t.initMetrics()

	runID := uuid.NewString()[:12]
	attrs := []attribute.KeyValue{
		attribute.String("gate", gate.Name),
		attribute.String("optimizer", t.opts.Optimizer),
	}
	ctx, span := tracer.Start(ctx, "neuron.Train",
		trace.WithAttributes(append(attrs,
			attribute.String("run_id", runID),
			attribute.Int("epochs", t.opts.Epochs),
		)...),
	)
	defer span.End()

	opt, err := NewOptimizer(t.opts.Optimizer, t.opts.LearningRate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	logger := t.logger.With(slog.String("run_id", runID), slog.String("gate", gate.Name))
	logger.Info("training started",
		slog.String("optimizer", opt.Name()),
		slog.Int("epochs", t.opts.Epochs),
		slog.Float64("learning_rate", float64(t.opts.LearningRate)),
	)

	g := autograd.New(autograd.WithSeed(t.opts.Seed), autograd.WithLogger(t.logger))
	model := NewModel(g, gate)
	g.Run()

	res := &Result{
		RunID:        runID,
		Gate:         gate.Name,
		Optimizer:    opt.Name(),
		LearningRate: t.opts.LearningRate,
		Seed:         t.opts.Seed,
		InitialLoss:  model.Loss.Value(),
		Losses:       make([]float32, 0, t.opts.Epochs+1),
		GraphNodes:   g.NodeCount(),
	}
	res.Losses = append(res.Losses, model.Loss.Value())

	var runErr error
	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		opt.Step(g.Weights())
		g.Run()

		loss := model.Loss.Value()
		res.Losses = append(res.Losses, loss)
		res.Epochs = epoch
		if t.epochsTotal != nil {
			t.epochsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if t.opts.LogEvery > 0 && epoch%t.opts.LogEvery == 0 {
			logger.Debug("epoch complete", slog.Int("epoch", epoch), slog.Float64("loss", float64(loss)))
		}
	}

	res.FinalLoss = model.Loss.Value()
	res.Weights = model.Weights()
	res.Predictions = model.Predictions()
	res.Accuracy = model.Accuracy()
	res.Duration = time.Since(start)

	if t.finalLoss != nil {
		t.finalLoss.Record(ctx, float64(res.FinalLoss), metric.WithAttributes(attrs...))
	}
	if t.trainDuration != nil {
		t.trainDuration.Record(ctx, res.Duration.Seconds(), metric.WithAttributes(attrs...))
	}
	span.SetAttributes(
		attribute.Float64("final_loss", float64(res.FinalLoss)),
		attribute.Float64("accuracy", res.Accuracy),
	)

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "training interrupted")
		logger.Warn("training interrupted", slog.Int("epochs_done", res.Epochs), slog.String("error", runErr.Error()))
		return res, runErr
	}

	logger.Info("training finished",
		slog.Int("epochs", res.Epochs),
		slog.Float64("initial_loss", float64(res.InitialLoss)),
		slog.Float64("final_loss", float64(res.FinalLoss)),
		slog.Float64("accuracy", res.Accuracy),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// TrainAll trains one neuron per gate concurrently, each on its own graph.
// Results come back in the order of gates. The first error cancels the rest.
func (t *Trainer) TrainAll(ctx context.Context, gates []Gate) ([]*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	results := make([]*Result, len(gates))
	g, gCtx := errgroup.WithContext(ctx)
	if t.opts.Parallelism > 0 {
		g.SetLimit(t.opts.Parallelism)
	}
	for i, gate := range gates {
		g.Go(func() error {
			res, err := t.Train(gCtx, gate)
			if err != nil {
				return fmt.Errorf("train %s: %w", gate.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
