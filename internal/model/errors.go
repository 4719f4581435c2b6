package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrServiceUnavailable = errors.New("service unavailable")
)
