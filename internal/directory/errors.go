package directory

import "fmt"

// NotFoundError is returned when no record exists for a key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found", e.Key)
}

// DuplicateKeyError is returned by Create when the key is already taken.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("agent %q already exists", e.Key)
}
