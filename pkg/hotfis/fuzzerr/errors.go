package fuzzerr

import "errors"

// Sentinel errors for every failure mode in the module. Callers match
// with errors.Is; sites wrap with fmt.Errorf("...: %w", ...) for context.
var (
	// ErrParse reports malformed rule or groupset text.
	ErrParse = errors.New("parse error")

	// ErrLookup reports an unknown group or function name.
	ErrLookup = errors.New("not found")

	// ErrConfiguration reports a kind or role mismatch, such as a TSK
	// function used as an antecedent, a duplicate network node, or a
	// cycle in a network.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingInput reports a required input group absent from an
	// evaluation call.
	ErrMissingInput = errors.New("missing input")

	// ErrUnsupportedOperation reports an operation requested on a
	// function kind that cannot support it.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
