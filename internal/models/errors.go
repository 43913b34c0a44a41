package models

import "errors"

// Domain errors. Handlers map these onto HTTP status codes; services wrap
// them with context via fmt.Errorf("...: %w", err).
var (
	ErrFileNotFound   = errors.New("file not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrShareNotFound  = errors.New("share link not found")

	ErrForbidden = errors.New("access denied")

	// ErrInvalidTransition is returned by lifecycle methods called out of order.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrFileNotReady guards sharing and download of files that have not
	// finished the ingestion pipeline.
	ErrFileNotReady = errors.New("file is not ready")

	// ErrShareExhausted covers inactive, expired and access-limit-reached links.
	ErrShareExhausted = errors.New("share link expired or exhausted")

	// ErrSharePassword is returned when a password-protected link is accessed
	// with a missing or wrong password.
	ErrSharePassword = errors.New("share password missing or invalid")

	// ErrAuthRequired is returned when a link requires an authenticated caller.
	ErrAuthRequired = errors.New("authentication required")

	ErrFolderNotEmpty = errors.New("folder is not empty")

	ErrValidation = errors.New("validation failed")

	// ErrConflict signals an optimistic-concurrency failure: the record was
	// modified since it was loaded.
	ErrConflict = errors.New("concurrent modification")

	// ErrDuplicateToken is returned by the store when a generated share token
	// collides with an existing one.
	ErrDuplicateToken = errors.New("share token already exists")
)
