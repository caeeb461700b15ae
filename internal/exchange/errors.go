package exchange

import "fmt"

// Error wraps a transport or exchange-side failure. No local state has
// changed when one of these is returned.
type Error struct {
	Op  string // the provider operation that failed, e.g. "place_order"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("exchange %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
