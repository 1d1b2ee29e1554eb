// Package apperr holds sentinel errors shared by the service and transports.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidSpan  = errors.New("invalid span")
	ErrUnknownEntry = errors.New("unknown entry")
)
