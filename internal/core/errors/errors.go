// Package errors defines the coded error type shared by every layer.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	// CodeMalformedInput marks a class file or name that cannot be decoded.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"
	// CodeInvalidPattern marks a unit glob that does not compile.
	CodeInvalidPattern  ErrorCode = "INVALID_PATTERN"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	// CodeViolation marks a failed architecture assertion.
	CodeViolation ErrorCode = "VIOLATION"
	CodeInternal  ErrorCode = "INTERNAL_ERROR"
)

// Context keys.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxUnit      = "unit"
	CtxPattern   = "pattern"
	CtxModule    = "module"
)

// DomainError is an error with a stable code and structured context.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error renders "[CODE] message: cause (key=value, ...)" with keys sorted.
func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key to the nearest DomainError in the chain, wrapping
// plain errors as internal ones.
func AddContext(err error, key string, value any) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// CodeOf returns the code of the nearest DomainError in the chain, or "".
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
