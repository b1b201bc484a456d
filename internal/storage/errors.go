package storage

import "errors"

// Common client storage errors
var (
	// ErrTokensNotFound indicates that no stored session exists
	ErrTokensNotFound = errors.New("stored tokens not found")

	// ErrSiteMismatch indicates the stored session belongs to a
	// different backend than the one the client talks to
	ErrSiteMismatch = errors.New("stored tokens belong to a different site")
)
