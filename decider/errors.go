package decider

import "errors"

// Sentinel error kinds, matched with errors.Is. The teacher repo has no
// custom error package anywhere — just fmt.Errorf wrapping standard errors —
// so this module follows suit instead of inventing a typed-error framework.
var (
	// ErrInvalidArgument means initialParallelism was neither UnsetParallelism
	// nor a positive integer.
	ErrInvalidArgument = errors.New("decider: invalid argument")

	// ErrInvalidState means the consumed results violate an invariant the
	// decider requires to proceed, e.g. disagreeing subpartition counts
	// across non-broadcast all-to-all inputs.
	ErrInvalidState = errors.New("decider: invalid state")

	// ErrConfigInvalid means the Config passed to New fails validation.
	ErrConfigInvalid = errors.New("decider: invalid configuration")
)
