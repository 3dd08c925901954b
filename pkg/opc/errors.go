package opc

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package for a rule violation or
// a contract violation matches exactly one of them with errors.Is.
var (
	// ErrInvalidFormat marks malformed package data: bad part names,
	// unparseable manifests, missing mandatory parts.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidOperation marks a structurally forbidden action on valid data.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrIllegalArgument marks a caller contract violation.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrPackageClosed is returned by operations on a closed or reverted package.
	ErrPackageClosed = errors.New("package closed")
)

// PackageError describes a failed package operation
type PackageError struct {
	Kind    error
	Op      string
	Part    string
	Rule    string
	Message string
	Cause   error
}

func (e *PackageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("opc: ")
	b.WriteString(e.Op)
	if e.Part != "" {
		fmt.Fprintf(&b, " '%s'", e.Part)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.Rule != "" {
		fmt.Fprintf(&b, " [%s]", e.Rule)
	}
	return b.String()
}

func (e *PackageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches the error kind
func (e *PackageError) Is(target error) bool {
	return e != nil && e.Kind != nil && target == e.Kind
}

func newPackageError(kind error, op, part, rule, format string, args ...interface{}) *PackageError {
	return &PackageError{
		Kind:    kind,
		Op:      op,
		Part:    part,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

func invalidFormat(op, part, rule, format string, args ...interface{}) error {
	return newPackageError(ErrInvalidFormat, op, part, rule, format, args...)
}

func invalidOperation(op, part, rule, format string, args ...interface{}) error {
	return newPackageError(ErrInvalidOperation, op, part, rule, format, args...)
}

func illegalArgument(op, part, format string, args ...interface{}) error {
	return newPackageError(ErrIllegalArgument, op, part, "", format, args...)
}

// wrapError attaches a kind to a lower level failure. Errors that already
// carry a kind are returned unchanged.
func wrapError(kind error, op, part string, cause error) error {
	if cause == nil {
		return nil
	}
	var pe *PackageError
	if errors.As(cause, &pe) {
		return cause
	}
	return &PackageError{Kind: kind, Op: op, Part: part, Cause: cause}
}

// IsInvalidFormat checks if an error is an invalid format error
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsIllegalArgument checks if an error is an illegal argument error
func IsIllegalArgument(err error) bool {
	return errors.Is(err, ErrIllegalArgument)
}

// RuleOf returns the compliance rule carried by err, if any.
func RuleOf(err error) string {
	var pe *PackageError
	if errors.As(err, &pe) {
		return pe.Rule
	}
	return ""
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns a copy of the collected errors
func (m *MultiError) Errors() []error {
	out := make([]error, len(m.errors))
	copy(out, m.errors)
	return out
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}
