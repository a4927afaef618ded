package main

import (
	"github.com/spf13/cobra"

	"cgrad/internal/expression"
	"cgrad/internal/report"
)

func newExampleCmd(_ *app) *cobra.Command {
	var a, b, rerunA float32

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Evaluate E = (a + b) / b³ and its gradients",
		Long: `Builds E = (a + b) / b³ as a graph, runs it, prints E with dE/da and dE/db,
then sets a to --rerun-a and runs the same graph again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x := expression.New(a, b)
			first := x.Run()
			x.SetA(rerunA)
			return report.Expression(cmd.OutOrStdout(), first, x.Run())
		},
	}

	cmd.Flags().Float32Var(&a, "a", 6, "value of a")
	cmd.Flags().Float32Var(&b, "b", -3, "value of b")
	cmd.Flags().Float32Var(&rerunA, "rerun-a", 5, "value of a for the second run")
	return cmd
}
