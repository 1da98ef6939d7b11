package store

import "fmt"

// StorageError reports that the persisted document could not be read or replaced.
// A failed replace leaves the previous document in place.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
