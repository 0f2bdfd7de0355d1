package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	// CategoryIntegrity marks client/server tree divergence. Unrecoverable
	// within the current reconciliation pass.
	CategoryIntegrity Category = "integrity"

	CategoryProtocol  Category = "protocol"
	CategoryWidget    Category = "widget"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
)

// StrandError is a structured error with a category, registered code,
// and optional detail, suggestion, and component identity.
type StrandError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (integrity, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// ComponentID is the identity of the component involved, if any.
	ComponentID string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StrandError) Error() string {
	switch {
	case e.Code != "" && e.ComponentID != "":
		return fmt.Sprintf("%s: %s (component %s)", e.Code, e.Message, e.ComponentID)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return e.Message
	}
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StrandError) Unwrap() error {
	return e.Wrapped
}

// IsIntegrity reports whether the error indicates tree/registry divergence.
func (e *StrandError) IsIntegrity() bool {
	return e.Category == CategoryIntegrity
}

// WithComponent attaches the affected component's identity.
func (e *StrandError) WithComponent(id string) *StrandError {
	e.ComponentID = id
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StrandError) WithDetail(format string, args ...any) *StrandError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StrandError) WithSuggestion(s string) *StrandError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *StrandError) Wrap(err error) *StrandError {
	e.Wrapped = err
	return e
}

// New creates a StrandError from a registered error code.
func New(code string) *StrandError {
	template, ok := registry[code]
	if !ok {
		return &StrandError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StrandError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new StrandError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *StrandError {
	return &StrandError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StrandError.
func FromError(err error, code string) *StrandError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StrandError); ok {
		return se
	}
	return New(code).Wrap(err)
}
