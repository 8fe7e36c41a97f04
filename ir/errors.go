package ir

import "errors"

// Sentinel errors covering this package's failure modes. Callers
// distinguish these with errors.Is rather than matching on message text.
var (
	// ErrUnsupportedOp: parse succeeds but an op does not fall into any
	// recognised category.
	ErrUnsupportedOp = errors.New("ir: unsupported op")

	// ErrAmbiguousEntryFunction: the number of candidate async functions is
	// neither 1 nor 2, or neither of two candidates is named *$async.
	ErrAmbiguousEntryFunction = errors.New("ir: ambiguous entry function")

	// ErrParse covers general textual-grammar failures (malformed line,
	// unbalanced block, …).
	ErrParse = errors.New("ir: parse error")
)
