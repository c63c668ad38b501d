package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknownStyle  = errors.New("unknown style")
	ErrInvalidRecord = errors.New("invalid record")
)
