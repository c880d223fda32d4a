package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized        = errors.New("invalid magic key")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConversionFailed    = errors.New("error converting and resizing image")
	ErrRemoteServiceFailed = errors.New("error upscaling image")
	ErrSendingReplyFailed  = errors.New("failed to send reply")
	ErrImageTooLarge       = errors.New("image exceeds maximum pixel count")
)

// ValidationError reports the offending form fields. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %s", k, e.Fields[k])
	}

	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
