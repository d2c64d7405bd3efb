package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryNavigation Category = "navigation"
	CategoryNetwork    Category = "network"
	CategoryValidation Category = "validation"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// PulseError is a structured error with a registry code and a suggestion.
type PulseError struct {
	// Code is a unique error identifier (e.g., "N010").
	Code string

	// Category is the error type (navigation, network, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PulseError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PulseError) Unwrap() error {
	return e.Wrapped
}

// Is matches any PulseError carrying the same code.
func (e *PulseError) Is(target error) bool {
	t, ok := target.(*PulseError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PulseError) WithSuggestion(s string) *PulseError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *PulseError) WithDetail(d string) *PulseError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *PulseError) WithDetailf(format string, args ...any) *PulseError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *PulseError) Wrap(err error) *PulseError {
	e.Wrapped = err
	return e
}

// New creates a PulseError from a registered error code.
func New(code string) *PulseError {
	template, ok := registry[code]
	if !ok {
		return &PulseError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PulseError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new PulseError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PulseError {
	return &PulseError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PulseError.
func FromError(err error, code string) *PulseError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PulseError); ok {
		return pe
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first PulseError in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if pe, ok := err.(*PulseError); ok {
			return pe.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
