package neuron

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGate is returned when a gate name is not in the catalogue.
var ErrUnknownGate = errors.New("unknown gate")

// Sample is one row of a truth table: two inputs and the expected output.
type Sample struct {
	X1     float32 `json:"x1" yaml:"x1"`
	X2     float32 `json:"x2" yaml:"x2"`
	Target float32 `json:"target" yaml:"target"`
}

// Gate is a named 2-input boolean truth table.
//
// LinearlySeparable records whether a single neuron can fit it. XOR cannot:
// no straight line splits its ones from its zeros.
type Gate struct {
	Name              string   `json:"name"`
	Rows              []Sample `json:"rows"`
	LinearlySeparable bool     `json:"linearly_separable"`
}

var (
	OR = Gate{Name: "or", LinearlySeparable: true, Rows: []Sample{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 1},
	}}
	AND = Gate{Name: "and", LinearlySeparable: true, Rows: []Sample{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 1},
	}}
	XOR = Gate{Name: "xor", LinearlySeparable: false, Rows: []Sample{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 0},
	}}
	NAND = Gate{Name: "nand", LinearlySeparable: true, Rows: []Sample{
		{0, 0, 1},
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 0},
	}}
	NOR = Gate{Name: "nor", LinearlySeparable: true, Rows: []Sample{
		{0, 0, 1},
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}}
)

// Gates returns every known gate in a stable order.
func Gates() []Gate {
	return []Gate{OR, AND, XOR, NAND, NOR}
}

// GateNames returns the names of Gates, in the same order.
func GateNames() []string {
	gates := Gates()
	names := make([]string, len(gates))
	for i, g := range gates {
		names[i] = g.Name
	}
	return names
}

// GateByName looks a gate up case-insensitively.
func GateByName(name string) (Gate, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, g := range Gates() {
		if g.Name == key {
			return g, nil
		}
	}
	return Gate{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownGate, name, strings.Join(GateNames(), ", "))
}
