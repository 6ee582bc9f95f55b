package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Error types for the treesearch query engine
type ErrorType string

const (
	// Construction errors
	ErrorTypeConfig ErrorType = "config"

	// Query errors
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeSearch      ErrorType = "search"
	ErrorTypeParse       ErrorType = "parse"

	// External process errors
	ErrorTypeProcess ErrorType = "process"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
)

var (
	// ErrUnsupported is matched by every UnsupportedError via errors.Is.
	ErrUnsupported = stderrors.New("operation not applicable to this corpus kind")

	// ErrNoFiles is returned when an engine is constructed without corpora.
	ErrNoFiles = stderrors.New("no corpus files given")
)

// ConfigError represents a construction-time configuration error
type ConfigError struct {
	Type       ErrorType
	Field      string
	Value      string
	Suggestion string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Type:       ErrorTypeConfig,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithSuggestion attaches a "did you mean" hint
func (e *ConfigError) WithSuggestion(s string) *ConfigError {
	e.Suggestion = s
	return e
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// UnsupportedError is returned when a backend cannot perform an operation
// for its kind of corpus.
type UnsupportedError struct {
	Type      ErrorType
	Backend   string
	Operation string
	Timestamp time.Time
}

// NewUnsupportedError creates a new unsupported-operation error
func NewUnsupportedError(backend, op string) *UnsupportedError {
	return &UnsupportedError{
		Type:      ErrorTypeUnsupported,
		Backend:   backend,
		Operation: op,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s not applicable with %s corpus", e.Operation, ErrUnsupported.Error(), e.Backend)
}

// Unwrap makes errors.Is(err, ErrUnsupported) hold
func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// ProcessError represents a non-zero exit of an external tool that was not
// terminated by us.
type ProcessError struct {
	Type       ErrorType
	Operation  string
	Path       string
	ExitCode   int
	Stderr     string
	Underlying error
	Timestamp  time.Time
}

// NewProcessError creates a new process error
func NewProcessError(op, path string, exitCode int, stderr string, err error) *ProcessError {
	return &ProcessError{
		Type:       ErrorTypeProcess,
		Operation:  op,
		Path:       path,
		ExitCode:   exitCode,
		Stderr:     stderr,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s failed for %s (exit %d): %v", e.Operation, e.Path, e.ExitCode, e.Underlying)
	}
	return fmt.Sprintf("%s failed for %s (exit %d): %s", e.Operation, e.Path, e.ExitCode, stderr)
}

// Unwrap returns the underlying error
func (e *ProcessError) Unwrap() error {
	return e.Underlying
}

// ParseError represents malformed backend output or markup
type ParseError struct {
	Type       ErrorType
	Path       string
	Line       int
	Text       string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, line int, text string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		Path:       path,
		Line:       line,
		Text:       text,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	return fmt.Sprintf("parse error at %s:%d (near %q): %v", e.Path, e.Line, text, e.Underlying)
}

// WithLocation fills in the file and line if they are not yet known
func (e *ParseError) WithLocation(path string, line int) *ParseError {
	if e.Path == "" {
		e.Path = path
		e.Line = line
	}
	return e
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// SearchError represents an invalid query
type SearchError struct {
	Type       ErrorType
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewSearchError creates a new search error
func NewSearchError(pattern string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.HasSuffix(errStr, "permission denied") || strings.HasSuffix(errStr, "access denied")
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// IsUnsupported reports whether err is an unsupported-operation error
func IsUnsupported(err error) bool {
	return stderrors.Is(err, ErrUnsupported)
}
