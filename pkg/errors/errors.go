package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the categories of errors raised by the monitor
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeDNS         ErrorType = "dns"
	ErrorTypeTool        ErrorType = "tool"
	ErrorTypeEnvironment ErrorType = "environment"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeCancelled   ErrorType = "cancelled"
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

// NewDNSError classifies a failed resolution attempt; never fatal, it drives a retry
func NewDNSError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeDNS, message, cause)
}

// NewToolError describes a non-zero exit, timeout or spawn failure of an external tool
func NewToolError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeTool, message, cause)
}

// NewMissingVariableError reports an unset required environment variable
func NewMissingVariableError(name string) *DomainError {
	return NewDomainError(ErrorTypeEnvironment, "missing required variable "+name, nil).WithContext("variable", name)
}

func NewTimeoutError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeTimeout, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeInternal, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeCancelled, message, cause)
}

func isType(err error, errorType ErrorType) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == errorType
}

func IsValidationError(err error) bool  { return isType(err, ErrorTypeValidation) }
func IsDNSError(err error) bool         { return isType(err, ErrorTypeDNS) }
func IsToolError(err error) bool        { return isType(err, ErrorTypeTool) }
func IsEnvironmentError(err error) bool { return isType(err, ErrorTypeEnvironment) }
func IsTimeoutError(err error) bool     { return isType(err, ErrorTypeTimeout) }
func IsIOError(err error) bool          { return isType(err, ErrorTypeIO) }
func IsInternalError(err error) bool    { return isType(err, ErrorTypeInternal) }
func IsCancelledError(err error) bool   { return isType(err, ErrorTypeCancelled) }

// ErrorCollection aggregates non-fatal failures, e.g. for strict-mode exit decisions
type ErrorCollection struct {
	Errors []error
}

func (e *ErrorCollection) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (e *ErrorCollection) Unwrap() []error {
	return e.Errors
}

func (e *ErrorCollection) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *ErrorCollection) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ErrorCollection) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]error, 0),
	}
}
