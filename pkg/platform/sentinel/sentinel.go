package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and upstream
// clients. Services translate them into domain errors; they never reach HTTP.
var (
	// ErrNotFound: the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the record is not in a state that allows the mutation.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the upstream or backing store cannot serve right now.
	ErrUnavailable = errors.New("unavailable")
	// ErrRateLimited: the upstream refused the call because of its quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidInput: the upstream refused the caller's input, not the call.
	ErrInvalidInput = errors.New("invalid input")
)
