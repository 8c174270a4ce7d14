// Package errors provides the error taxonomy for toy listing operations.
package errors

import "errors"

// ErrInvalidIdentifier reports an id that is not a valid store identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrToyNotFound reports that no toy listing matched the identifier.
var ErrToyNotFound = errors.New("toy not found")

// ErrStoreUnavailable reports a connection, timeout, or open circuit failure of the document store.
var ErrStoreUnavailable = errors.New("store unavailable")
