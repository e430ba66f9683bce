// Package errors classifies manager failures so the CLI can choose a message
// and an exit status without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Failures of git, HTTP downloads and external tools such as stylua or luatex.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"
	CategoryProcess ErrorCategory = "process"

	// Failures while reading, transforming or writing library files.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryLookup     ErrorCategory = "lookup"

	CategoryInternal ErrorCategory = "internal"
)

type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityWarning ErrorSeverity = "warning"
)

// ManagerError carries a category, a severity and optional key/value context.
type ManagerError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

type ContextFields map[string]any

func (e *ManagerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s", e.Category, e.Severity, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ManagerError) Unwrap() error { return e.Cause }

// WithContext sets key and returns e for chaining.
func (e *ManagerError) WithContext(key string, value any) *ManagerError {
	if e.Context == nil {
		e.Context = ContextFields{}
	}
	e.Context[key] = value
	return e
}

func New(category ErrorCategory, severity ErrorSeverity, message string) *ManagerError {
	return Wrap(nil, category, severity, message)
}

func Wrap(cause error, category ErrorCategory, severity ErrorSeverity, message string) *ManagerError {
	return &ManagerError{Category: category, Severity: severity, Message: message, Cause: cause}
}

// As finds the outermost ManagerError in the chain.
func As(err error) (*ManagerError, bool) {
	var me *ManagerError
	ok := stderrors.As(err, &me)
	return me, ok
}

func IsCategory(err error, category ErrorCategory) bool {
	me, ok := As(err)
	return ok && me.Category == category
}

// GetCategory returns CategoryInternal for errors that were never classified.
func GetCategory(err error) ErrorCategory {
	if me, ok := As(err); ok {
		return me.Category
	}
	return CategoryInternal
}
