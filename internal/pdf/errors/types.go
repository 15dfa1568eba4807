package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PDFError represents a redaction failure with the file and page it concerns
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Err        error     `json:"-"`
}

// ErrorType represents the categories of failures the redactor reports
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeParseFailure
	ErrorTypeSaveFailure
	ErrorTypeCleanupFailure
	ErrorTypeInvalidInput
	ErrorTypeUnsupportedFeature
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.FilePath != "" {
		msg += " (" + e.FilePath
		if e.PageNumber > 0 {
			msg += fmt.Sprintf(", page %d", e.PageNumber)
		}
		msg += ")"
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PDFError of the same type, so callers can
// match with errors.Is(err, errors.New(ErrorTypeSaveFailure, "")).
func (e *PDFError) Is(target error) bool {
	var t *PDFError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeParseFailure:
		return "PARSE_FAILURE"
	case ErrorTypeSaveFailure:
		return "SAVE_FAILURE"
	case ErrorTypeCleanupFailure:
		return "CLEANUP_FAILURE"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeUnsupportedFeature:
		return "UNSUPPORTED_FEATURE"
	default:
		return "UNKNOWN"
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapError wraps a standard error as a PDFError. A nil err yields nil.
func WrapError(errorType ErrorType, err error) *PDFError {
	if err == nil {
		return nil
	}
	return &PDFError{
		Type:      errorType,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Err:       err,
	}
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// TypeOf returns the type of the first PDFError in err's chain
func TypeOf(err error) ErrorType {
	var pdfErr *PDFError
	if stderrors.As(err, &pdfErr) {
		return pdfErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain holds a PDFError of the given type
func IsType(err error, errorType ErrorType) bool {
	return stderrors.Is(err, &PDFError{Type: errorType})
}
