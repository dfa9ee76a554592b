package store

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrReferenceExists = errors.New("reference exists")
	ErrMissingCourse   = errors.New("missing course")
	ErrNotFound        = errors.New("not found")
)
