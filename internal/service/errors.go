package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart must contain at least one item")
	ErrReceiptRequired   = errors.New("bank transfer orders require a payment receipt")
	ErrInvalidTransition = errors.New("order status cannot be changed")
)

// ValidationError reports a rejected customer-supplied field. It short-circuits
// a submission before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
