package picoquant

import "github.com/pkg/errors"

// Every error returned by this package reflects a caller contract
// violation raised at the point of the offending call; none are transient,
// and a failed mutation leaves the graph untouched.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrLengthMismatch    = errors.New("length mismatch")
	ErrInvalidCharacter  = errors.New("invalid character")
	ErrUnknownIndex      = errors.New("unknown index")
	ErrUnknownLabel      = errors.New("unknown label")
)
