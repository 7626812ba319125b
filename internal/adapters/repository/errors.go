package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrStorage  = errors.New("storage fault")
	ErrCorrupt  = errors.New("data file is not valid survey data")
)
