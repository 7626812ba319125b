package service

import (
	"errors"
	"fmt"

	"github.com/okian/mdpsurvey/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownMDP matches repository.ErrNotFound.
	ErrUnknownMDP = fmt.Errorf("no evaluations for mdp: %w", repository.ErrNotFound)
)
