package export

import "errors"

var (
	// ErrWrite is returned when a report cannot be written to its destination.
	ErrWrite = errors.New("export write failed")
)
