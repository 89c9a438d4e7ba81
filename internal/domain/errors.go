package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrUnknownInteraction = errors.New("unknown interaction kind")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
