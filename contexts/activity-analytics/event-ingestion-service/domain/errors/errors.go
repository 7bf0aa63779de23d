package errors

import "errors"

var (
	ErrEmptyBatch       = errors.New("event batch must not be empty")
	ErrInvalidEvent     = errors.New("invalid event payload")
	ErrInvalidTarget    = errors.New("invalid target data store")
	ErrStoreUnavailable = errors.New("transactional store unavailable")
)
