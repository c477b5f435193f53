package ldif

import (
	"fmt"
	"strings"
)

// ErrorCategory classifies parse failures.
type ErrorCategory string

const (
	// ErrorCategoryDecode covers input that cannot be decoded in the
	// configured character encoding.
	ErrorCategoryDecode ErrorCategory = "decode"

	// ErrorCategoryBase64 covers malformed base64 in a "::" value.
	ErrorCategoryBase64 ErrorCategory = "base64"

	// ErrorCategorySyntax covers lines that match no LDIF production.
	ErrorCategorySyntax ErrorCategory = "syntax"
)

// ParseError describes a failure while parsing an LDIF file.
type ParseError struct {
	File     string        // Source file being parsed
	Line     int           // 1-based line number, 0 if not line-scoped
	Category ErrorCategory // Failure classification
	Message  string        // Human-readable message
	Cause    error         // Underlying error, if any
}

func (e *ParseError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("ldif %s error", e.Category))
	if e.File != "" {
		if e.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.File, e.Line))
		} else {
			parts = append(parts, e.File)
		}
	} else if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	return strings.Join(parts, ": ")
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// newBase64Error builds a line-scoped base64 error.
func newBase64Error(file string, line int, attr string, cause error) *ParseError {
	return &ParseError{
		File:     file,
		Line:     line,
		Category: ErrorCategoryBase64,
		Message:  fmt.Sprintf("invalid base64 value for attribute %q", attr),
		Cause:    cause,
	}
}

// newSyntaxError builds a line-scoped syntax error.
func newSyntaxError(file string, line int, content string) *ParseError {
	return &ParseError{
		File:     file,
		Line:     line,
		Category: ErrorCategorySyntax,
		Message:  fmt.Sprintf("unparseable line: %q", content),
	}
}
