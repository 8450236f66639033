package concentration

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is wrapped by every error the package returns. These are
// contract violations on the caller's side.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrOutOfRange     = fmt.Errorf("%w: cell index out of bounds", ErrInvalidArgument)
	ErrInvalidPairs   = fmt.Errorf("%w: number of pairs must be between 1 and %d", ErrInvalidArgument, MaxPairs)
	ErrNoRoom         = fmt.Errorf("%w: not enough empty cells for pairs", ErrInvalidArgument)
	ErrTooManyMatched = fmt.Errorf("%w: matched pairs exceed total pairs", ErrInvalidArgument)
	ErrNegativeMatch  = fmt.Errorf("%w: negative matched count", ErrInvalidArgument)
	ErrInvalidShape   = fmt.Errorf("%w: unknown shape", ErrInvalidArgument)
	ErrMalformed      = fmt.Errorf("%w: malformed board encoding", ErrInvalidArgument)
)
