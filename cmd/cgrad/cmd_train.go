package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cgrad/internal/neuron"
	"cgrad/internal/report"
	"cgrad/internal/telemetry"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		gate      string
		epochs    int
		lr        float32
		optimizer string
		seed      int64
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a single neuron on a logic gate",
		Long: `Fits sigmoid(x1·w1 + x2·w2 + bias) to a gate's truth table by minimising the
mean squared error. OR, AND, NAND and NOR are learnable; XOR is not.

Flags override the training section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tc := a.cfg.Training
			flags := cmd.Flags()
			if flags.Changed("gate") {
				tc.Gate = gate
			}
			if flags.Changed("epochs") {
				tc.Epochs = epochs
			}
			if flags.Changed("lr") {
				tc.LearningRate = lr
			}
			if flags.Changed("optimizer") {
				tc.Optimizer = optimizer
			}
			if flags.Changed("seed") {
				tc.Seed = seed
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			tcfg := a.telemetryConfig()
			if tcfg.MetricExporter == "prometheus" {
				// Nothing scrapes a one-shot run.
				tcfg.MetricExporter = "none"
			}
			shutdown, err := telemetry.Init(ctx, tcfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
				}
			}()

			trainer, err := neuron.NewTrainer(tc.Options(), a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if all {
				results, err := trainer.TrainAll(ctx, neuron.Gates())
				if err != nil {
					return err
				}
				for _, res := range results {
					if err := report.Training(out, res); err != nil {
						return err
					}
				}
				return report.Summary(out, results)
			}

			g, err := neuron.GateByName(tc.Gate)
			if err != nil {
				return err
			}
			res, err := trainer.Train(ctx, g)
			if res != nil {
				if rerr := report.Training(out, res); rerr != nil {
					return rerr
				}
			}
			if err != nil {
				return fmt.Errorf("train %s: %w", g.Name, err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&gate, "gate", "or", "gate to learn: or, and, xor, nand, nor")
	f.IntVar(&epochs, "epochs", 100, "gradient descent epochs")
	f.Float32Var(&lr, "lr", 1.0, "learning rate")
	f.StringVar(&optimizer, "optimizer", "sgd", "optimizer: sgd, adam")
	f.Int64Var(&seed, "seed", 1, "weight initialisation seed")
	f.BoolVar(&all, "all", false, "train every gate concurrently")
	return cmd
}
