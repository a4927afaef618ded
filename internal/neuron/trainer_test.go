package neuron

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTrainer(t *testing.T, mutate func(*Options)) *Trainer {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	tr, err := NewTrainer(opts, quietLogger())
	require.NoError(t, err)
	return tr
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults", nil, nil},
		{"zero epochs", func(o *Options) { o.Epochs = 0 }, nil},
		{"negative epochs", func(o *Options) { o.Epochs = -1 }, ErrInvalidOptions},
		{"zero learning rate", func(o *Options) { o.LearningRate = 0 }, ErrInvalidOptions},
		{"adam", func(o *Options) { o.Optimizer = "adam" }, nil},
		{"unknown optimizer", func(o *Options) { o.Optimizer = "lbfgs" }, ErrUnknownOptimizer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}
			err := opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNewTrainer_RejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.LearningRate = -1
	tr, err := NewTrainer(opts, nil)
	assert.Nil(t, tr)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestTrain_DefaultRunReducesLoss(t *testing.T) {
	tr := newTestTrainer(t, nil)

	res, err := tr.Train(context.Background(), OR)
	require.NoError(t, err)

	assert.Equal(t, "or", res.Gate)
	assert.Equal(t, "sgd", res.Optimizer)
	assert.Equal(t, 100, res.Epochs)
	assert.Len(t, res.Losses, 101)
	assert.Equal(t, res.InitialLoss, res.Losses[0])
	assert.Equal(t, res.FinalLoss, res.Losses[100])
	assert.Less(t, res.FinalLoss, res.InitialLoss)
	assert.Len(t, res.RunID, 12)
	assert.Positive(t, res.GraphNodes)
	assert.Len(t, res.Predictions, 4)
}

func TestTrain_LearnsSeparableGates(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) { o.Epochs = 1000 })

	for _, gate := range Gates() {
		if !gate.LinearlySeparable {
			continue
		}
		t.Run(gate.Name, func(t *testing.T) {
			res, err := tr.Train(context.Background(), gate)
			require.NoError(t, err)
			assert.Less(t, res.FinalLoss, float32(0.01))
			assert.Equal(t, 1.0, res.Accuracy)
		})
	}
}

func TestTrain_CannotLearnXOR(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) { o.Epochs = 1000 })

	res, err := tr.Train(context.Background(), XOR)
	require.NoError(t, err)
	assert.Greater(t, res.FinalLoss, float32(0.1))
	assert.Less(t, res.Accuracy, 1.0)
}

func TestTrain_Adam(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) {
		o.Optimizer = "adam"
		o.LearningRate = 0.1
		o.Epochs = 300
	})

	res, err := tr.Train(context.Background(), OR)
	require.NoError(t, err)
	assert.Equal(t, "adam", res.Optimizer)
	assert.Less(t, res.FinalLoss, float32(0.01))
}

func TestTrain_SameSeedSameRun(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) { o.Seed = 42 })

	a, err := tr.Train(context.Background(), NAND)
	require.NoError(t, err)
	b, err := tr.Train(context.Background(), NAND)
	require.NoError(t, err)

	assert.Equal(t, a.Losses, b.Losses)
	assert.Equal(t, a.Weights, b.Weights)
	assert.NotEqual(t, a.RunID, b.RunID)

	other, err := tr.WithOptions(Options{Epochs: 100, LearningRate: 1, Seed: 43})
	require.NoError(t, err)
	c, err := other.Train(context.Background(), NAND)
	require.NoError(t, err)
	assert.NotEqual(t, a.InitialLoss, c.InitialLoss)
}

func TestTrain_ZeroEpochs(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) { o.Epochs = 0 })

	res, err := tr.Train(context.Background(), AND)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Epochs)
	assert.Equal(t, []float32{res.InitialLoss}, res.Losses)
	assert.Equal(t, res.InitialLoss, res.FinalLoss)
}

func TestTrain_CancelledContextReturnsPartialResult(t *testing.T) {
	tr := newTestTrainer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := tr.Train(ctx, OR)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Epochs)
	assert.Len(t, res.Losses, 1)
}

func TestTrain_InputErrors(t *testing.T) {
	tr := newTestTrainer(t, nil)

	//nolint:staticcheck // exercising the nil guard
	_, err := tr.Train(nil, OR)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = tr.Train(context.Background(), Gate{Name: "empty"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestTrain_LogsProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts := DefaultOptions()
	opts.Epochs = 10
	opts.LogEvery = 5
	tr, err := NewTrainer(opts, logger)
	require.NoError(t, err)

	_, err = tr.Train(context.Background(), OR)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "training started")
	assert.Contains(t, out, "training finished")
	assert.Equal(t, 2, strings.Count(out, "epoch complete"))
	assert.Contains(t, out, "gate=or")
}

func TestTrainAll_PreservesOrder(t *testing.T) {
	tr := newTestTrainer(t, func(o *Options) { o.Parallelism = 2 })

	gates := Gates()
	results, err := tr.TrainAll(context.Background(), gates)
	require.NoError(t, err)
	require.Len(t, results, len(gates))
	for i, res := range results {
		assert.Equal(t, gates[i].Name, res.Gate)
	}
}

func TestTrainAll_PropagatesErrors(t *testing.T) {
	tr := newTestTrainer(t, nil)

	_, err := tr.TrainAll(context.Background(), []Gate{OR, {Name: "broken"}})
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "train broken")

	//nolint:staticcheck // exercising the nil guard
	_, err = tr.TrainAll(nil, Gates())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestTrain_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tr := newTestTrainer(t, func(o *Options) { o.Epochs = 7 })
	_, err := tr.Train(context.Background(), OR)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if m.Name != "neuron_epochs_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			assert.Equal(t, int64(7), sum.DataPoints[0].Value)
		}
	}
	assert.True(t, found["neuron_epochs_total"])
	assert.True(t, found["neuron_loss"])
	assert.True(t, found["neuron_train_duration_seconds"])
}
