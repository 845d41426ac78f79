package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique-constraint violations
	// (email, domain, site+slug).
	ErrDuplicate = errors.New("duplicate")
)
