package engine

import "errors"

// Failure taxonomy for session operations. Callers branch with
// errors.Is; everything else wrapping one of these sentinels carries
// the detail.
var (
	// ErrNotFound covers absent stories, scenes and sessions.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChoice covers choice indexes out of range and
	// actions applied to the wrong scene type.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrDanglingReference means authored content points at a scene
	// that does not exist. Fatal to the transition, not the process.
	ErrDanglingReference = errors.New("dangling scene reference")

	// ErrPersistence wraps storage I/O failures. The caller's
	// in-memory session is unchanged when this is returned.
	ErrPersistence = errors.New("persistence failure")
)
