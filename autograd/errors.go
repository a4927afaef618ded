package autograd

import (
	"errors"
	"fmt"
)

// ErrInvariant is wrapped by every panic the engine raises.
// These are programming errors: the graph is malformed and cannot be evaluated.
var ErrInvariant = errors.New("autograd: invariant violated")

func panicf(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
}
