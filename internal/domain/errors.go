package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced review or image is absent
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrTooManyImages is returned when an upload batch would push a review
	// past its image cap; the whole batch is rejected
	ErrTooManyImages = errors.New("image limit exceeded")

	// ErrInvalidFile is returned for a disallowed upload (extension,
	// content type, size, or empty content)
	ErrInvalidFile = errors.New("invalid file")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
