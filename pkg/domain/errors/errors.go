package errors

import (
	stderrors "errors"
	"fmt"
)

// Error represents a structured error with code and context
type Error struct {
	Code     Code
	Domain   string
	Message  string
	Cause    error
	Resource string
	Field    string
}

// New creates a new error with the given code, domain, message, and optional cause
func New(code Code, domain string, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Domain:  domain,
		Message: message,
		Cause:   cause,
	}
}

// Validation builds a validation-family error naming the resource and the offending field.
//
//	errors.Validation(errors.CodeMissingProperty, "cache", "image", "is required")
//	  -> "[validation:MISSING_PROPERTY] resource 'cache': property 'image' is required"
func Validation(code Code, resource, field, detail string) *Error {
	msg := fmt.Sprintf("resource '%s': property '%s' %s", resource, field, detail)
	if field == "" {
		msg = fmt.Sprintf("resource '%s': %s", resource, detail)
	}
	return &Error{
		Code:     code,
		Domain:   "validation",
		Message:  msg,
		Resource: resource,
		Field:    field,
	}
}

// Missing is shorthand for a missing required property.
func Missing(resource, field string) *Error {
	return Validation(CodeMissingProperty, resource, field, "is required")
}

// Unexpected is shorthand for a property outside the type's allowlist.
func Unexpected(resource, field string) *Error {
	return &Error{
		Code:     CodeUnexpectedProperty,
		Domain:   "validation",
		Message:  fmt.Sprintf("resource '%s': unexpected property '%s'", resource, field),
		Resource: resource,
		Field:    field,
	}
}

// Operational wraps a collaborator failure.
func Operational(code Code, resource, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Domain:   "operational",
		Message:  message,
		Cause:    cause,
		Resource: resource,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Domain, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsValidation reports whether err, or anything it wraps, is a validation-family error.
func IsValidation(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return IsValidationCode(e.Code)
}

// IsOperational reports whether err, or anything it wraps, is an operational-family error.
func IsOperational(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return !IsValidationCode(e.Code)
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
