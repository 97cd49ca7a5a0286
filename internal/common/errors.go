package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("bad credentials")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Token errors. The verifier returns exactly one of these; callers
	// outside the auth boundary only ever see ErrorUnauthorized.
	ErrMissingToken     = errors.New("missing token")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
)

// ValidationError reports malformed input with per-field detail.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a problem for field and returns v for chaining.
func (v *ValidationError) Add(field, msg string) *ValidationError {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = msg
	return v
}

// OrNil returns nil when no field was recorded, so a builder can be returned
// directly as an error.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PayloadTooLargeError is returned when an upload exceeds the configured limit.
type PayloadTooLargeError struct {
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload exceeds %d bytes", e.Limit)
}

// UnsupportedMediaTypeError is returned when an upload declares a content type
// outside the configured allowlist.
type UnsupportedMediaTypeError struct {
	ContentType string
	Allowed     []string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("content type %q is not allowed", e.ContentType)
}

// TooManyAttemptsError carries the wait before the next attempt is allowed.
// It matches ErrTooManyAttempts with errors.Is.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrTooManyAttempts, e.RetryAfter)
}

func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyAttempts
}
