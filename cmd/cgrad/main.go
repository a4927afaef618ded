// Command cgrad demonstrates the scalar autodiff engine: the worked
// expression example, single-neuron gate training and an HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
