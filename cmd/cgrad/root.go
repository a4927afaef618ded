package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"cgrad/internal/config"
	"cgrad/internal/logging"
	"cgrad/internal/telemetry"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// app carries state resolved by the root command before any subcommand runs.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cgrad",
		Short:         "cgrad - a scalar reverse-mode autodiff engine",
		Long:          `cgrad builds scalar computation graphs, evaluates them and back-propagates gradients. It ships a worked expression example, a single-neuron gate trainer and an HTTP API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text, json")

	root.AddCommand(
		newExampleCmd(a),
		newTrainCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) telemetryConfig() telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceName = a.cfg.Telemetry.ServiceName
	tc.ServiceVersion = Version
	tc.MetricExporter = a.cfg.Telemetry.MetricExporter
	tc.TraceExporter = a.cfg.Telemetry.TraceExporter
	tc.OTLPEndpoint = a.cfg.Telemetry.OTLPEndpoint
	return tc
}
