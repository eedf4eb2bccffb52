package repository

import "errors"

// ErrNoFields signals an empty partial update; callers treat it as a
// validation failure rather than a storage error.
var ErrNoFields = errors.New("no fields to update")

// ErrColumnNotAllowed signals an update touching a column outside the
// repository's allow-list.
var ErrColumnNotAllowed = errors.New("column not allowed")
