package balancer

import "errors"

var (
	// ErrNoProducer is returned when the target item has no recipe and was
	// not declared raw.
	ErrNoProducer = errors.New("no producer for target")

	// ErrNotConverged is returned alongside a result in strict mode when the
	// iteration cap was reached before a pass settled nothing.
	ErrNotConverged = errors.New("balancing did not converge")

	// ErrInvalidRequest reports a request that cannot be balanced.
	ErrInvalidRequest = errors.New("invalid request")
)
