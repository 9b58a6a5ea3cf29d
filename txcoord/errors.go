package txcoord

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPending is returned when an action is submitted again
	// before its previous submission settled.
	ErrAlreadyPending = errors.New("action already pending")
	// ErrTxRejected covers signing failures, broadcasts refused by every
	// node and txs that never got mined.
	ErrTxRejected = errors.New("transaction rejected")
	// ErrTxReverted means the tx was mined with a failed status.
	ErrTxReverted = errors.New("transaction reverted")
)

// ValidationError is returned before anything reaches the network.
type ValidationError struct {
	Action string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("invalid %s for %s: %s", e.Field, e.Action, e.Reason)
}

// IsValidationError ...
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
