package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a question rejected before any upstream call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingFailed marks an embedding call that failed or returned an unusable vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrRetrievalUnavailable marks a retrieval where neither semantic search nor
	// the recency listing reached the store. It never leaves RetrievalService.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrCompletionUnavailable is the parent of every completion failure.
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrCompletionTimeout marks a completion that did not answer within the deadline.
	ErrCompletionTimeout = fmt.Errorf("%w: timeout", ErrCompletionUnavailable)

	// ErrCompletionInvalidResponse marks a completion whose response had no usable answer.
	ErrCompletionInvalidResponse = fmt.Errorf("%w: invalid response", ErrCompletionUnavailable)

	// ErrCompletionTransport marks a completion that failed in transport or upstream.
	ErrCompletionTransport = fmt.Errorf("%w: transport error", ErrCompletionUnavailable)
)

// InputError describes why a question was rejected. It matches ErrInvalidInput.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
