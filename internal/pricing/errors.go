package pricing

import (
	"errors"
	"fmt"
)

// ErrBracketingFailure is returned when the bisection bracket does not
// straddle the target price. The no-arbitrage checks run first, so hitting
// this in practice means the configured bracket is too narrow.
var ErrBracketingFailure = errors.New("bisection bracket does not contain the target price")

// InvalidParameterError reports a malformed or out-of-domain input.
// It names the offending parameter so the CLI/REST layer can surface it.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

func invalidParam(param, reason string) error {
	return &InvalidParameterError{Param: param, Reason: reason}
}

// UnattainablePriceError reports a market price that violates the
// no-arbitrage bounds for the contract, naming the violated bound.
type UnattainablePriceError struct {
	Bound string  // "intrinsic value" or "asset bound"
	Limit float64 // value of the violated bound
	Price float64 // offending market price
}

func (e *UnattainablePriceError) Error() string {
	return fmt.Sprintf("market price %.6f violates %s bound %.6f", e.Price, e.Bound, e.Limit)
}
