package errors

import "errors"

var (
	ErrInvalidDateRange   = errors.New("from_date must not be after to_date")
	ErrInvalidLimit       = errors.New("limit must be a positive integer")
	ErrInvalidWindows     = errors.New("windows must be at least 2")
	ErrInvalidRequest     = errors.New("invalid analytics request")
	ErrReplicaBusy        = errors.New("analytical store is locked by another process")
	ErrReplicaUnavailable = errors.New("analytical store unavailable")
)
