package book

import "errors"

// Errors
var (
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidSize       = errors.New("invalid size")
	ErrInvalidCount      = errors.New("invalid count")
	ErrInvalidStrategy   = errors.New("invalid strategy")
	ErrMissingOrderID    = errors.New("missing order id")
	ErrUnexpectedOrderID = errors.New("unexpected order id")
	ErrUnexpectedCount   = errors.New("unexpected count")
	ErrUnknownPrice      = errors.New("unknown price")
)
