package paging

import "errors"

var (
	// ErrInvalidArgument is returned when a required argument is missing:
	// a nil source, predicate, selector or sort key, or an empty filter key.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidRange is returned when a numeric argument is out of range,
	// such as a page size below 1.
	ErrInvalidRange = errors.New("argument out of range")
)
