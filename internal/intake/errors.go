package intake

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("intake: session not found")

	// ErrSessionTerminal is returned when a conversation turn is attempted
	// on a completed or abandoned session.
	ErrSessionTerminal = errors.New("intake: session is completed or abandoned")

	// ErrEmptyRoster is returned when matching finds no active dentists for
	// the practice. Distinct from "matched zero by design".
	ErrEmptyRoster = errors.New("intake: no active dentists for practice")
)
