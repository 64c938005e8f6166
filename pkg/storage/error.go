package storage

import "errors"

// NotFoundError is returned when no snapshot exists for a key.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "snapshot not found"
	}

	return "snapshot not found: " + e.Key
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
