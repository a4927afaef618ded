// Package report renders engine and training results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cgrad/internal/expression"
	"cgrad/internal/neuron"
)

var (
	colorAccent  = lipgloss.Color("#2CD7C7")
	colorBorder  = lipgloss.Color("#16858E")
	colorMuted   = lipgloss.Color("#2C4A54")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Good    lipgloss.Style
	Bad     lipgloss.Style
	Warning lipgloss.Style
	Box     lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Label:   lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Good:    lipgloss.NewStyle().Foreground(colorAccent),
	Bad:     lipgloss.NewStyle().Foreground(colorError),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1),
	Header: lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
	Cell:   lipgloss.NewStyle().Padding(0, 1),
}

// curvePoints is how many loss samples Training shows.
const curvePoints = 6

// Expression writes the worked example: the value of E and its gradients.
// Extra results are printed as reruns after an input change.
func Expression(w io.Writer, first expression.Result, reruns ...expression.Result) error {
	var b strings.Builder
	b.WriteString(styles.Title.Render("E = (a + b) / b³"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s a = %g, b = %g\n", styles.Label.Render("inputs"), first.A, first.B)
	fmt.Fprintf(&b, "%s E = %.6f\n", styles.Label.Render("value "), first.Value)
	fmt.Fprintf(&b, "%s dE/da = %.6f, dE/db = %.6f\n", styles.Label.Render("grads "), first.GradA, first.GradB)
	for _, r := range reruns {
		fmt.Fprintf(&b, "%s a = %g, b = %g → E = %.6f\n", styles.Label.Render("rerun "), r.A, r.B, r.Value)
	}
	b.WriteString(styles.Muted.Render(fmt.Sprintf("%d nodes", first.Nodes)))

	_, err := fmt.Fprintln(w, styles.Box.Render(b.String()))
	return err
}

// Training writes one run: header, sampled loss curve, final weights and
// the per-row prediction table.
func Training(w io.Writer, res *neuron.Result) error {
	if res == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		styles.Title.Render(strings.ToUpper(res.Gate)),
		styles.Muted.Render(fmt.Sprintf("run %s · %s lr=%g · %d epochs · seed %d",
			res.RunID, res.Optimizer, res.LearningRate, res.Epochs, res.Seed)),
	)
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("loss   "), lossCurve(res.Losses))
	fmt.Fprintf(&b, "%s w1=%.4f w2=%.4f bias=%.4f\n", styles.Label.Render("weights"),
		res.Weights.W1, res.Weights.W2, res.Weights.Bias)
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("acc    "), accuracy(res.Accuracy))
	b.WriteString(predictionTable(res.Predictions))

	_, err := fmt.Fprintln(w, styles.Box.Render(b.String()))
	return err
}

// Summary writes one line per run, for `train --all`.
func Summary(w io.Writer, results []*neuron.Result) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("gate", "optimizer", "epochs", "initial loss", "final loss", "accuracy").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})
	for _, res := range results {
		if res == nil {
			continue
		}
		t.Row(
			res.Gate,
			res.Optimizer,
			fmt.Sprint(res.Epochs),
			fmt.Sprintf("%.6f", res.InitialLoss),
			fmt.Sprintf("%.6f", res.FinalLoss),
			accuracy(res.Accuracy),
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func predictionTable(preds []neuron.Prediction) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Muted).
		Headers("x1", "x2", "target", "output", "").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})
	for _, p := range preds {
		mark := styles.Good.Render("✓")
		if !p.Correct {
			mark = styles.Bad.Render("✗")
		}
		t.Row(
			fmt.Sprintf("%g", p.X1),
			fmt.Sprintf("%g", p.X2),
			fmt.Sprintf("%g", p.Target),
			fmt.Sprintf("%.4f", p.Output),
			mark,
		)
	}
	return t.String()
}

// lossCurve samples losses at evenly spaced epochs, always including the
// first and the last.
func lossCurve(losses []float32) string {
	if len(losses) == 0 {
		return styles.Muted.Render("n/a")
	}
	idx := sampleIndices(len(losses), curvePoints)
	parts := make([]string, len(idx))
	for i, j := range idx {
		parts[i] = fmt.Sprintf("%d:%.4f", j, losses[j])
	}
	return strings.Join(parts, " → ")
}

func sampleIndices(n, k int) []int {
	if n <= k {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, k)
	for i := range out {
		out[i] = i * (n - 1) / (k - 1)
	}
	return out
}

func accuracy(a float64) string {
	s := fmt.Sprintf("%.0f%%", a*100)
	switch {
	case a == 1:
		return styles.Good.Render(s)
	case a >= 0.5:
		return styles.Warning.Render(s)
	default:
		return styles.Bad.Render(s)
	}
}
