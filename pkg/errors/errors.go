package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SchemaError reports a palette that cannot be registered: its light and dark
// maps disagree on keys, its identifier is malformed, or it is a duplicate.
type SchemaError struct {
	PaletteID   string
	Message     string
	MissingDark []string
	MissingLite []string
}

// NewSchemaError constructs a SchemaError with a free-form message.
func NewSchemaError(paletteID, message string) error {
	return &SchemaError{PaletteID: paletteID, Message: message}
}

// NewKeyParityError constructs a SchemaError listing the keys present on only one side.
func NewKeyParityError(paletteID string, missingInDark, missingInLight []string) error {
	dark := append([]string(nil), missingInDark...)
	light := append([]string(nil), missingInLight...)
	sort.Strings(dark)
	sort.Strings(light)
	return &SchemaError{
		PaletteID:   paletteID,
		Message:     "light and dark variable sets differ",
		MissingDark: dark,
		MissingLite: light,
	}
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "schema error [%s]: %s", e.PaletteID, e.Message)
	if len(e.MissingDark) > 0 {
		fmt.Fprintf(&b, "; missing in dark: %s", strings.Join(e.MissingDark, ", "))
	}
	if len(e.MissingLite) > 0 {
		fmt.Fprintf(&b, "; missing in light: %s", strings.Join(e.MissingLite, ", "))
	}
	return b.String()
}

// NotFoundError is returned when a palette lookup misses.
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError constructs a NotFoundError.
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// UnknownPaletteError is returned when a composition references a palette
// that has not been registered.
type UnknownPaletteError struct {
	PaletteID string
	Err       error
}

// NewUnknownPaletteError constructs an UnknownPaletteError.
func NewUnknownPaletteError(paletteID string, err error) error {
	return &UnknownPaletteError{PaletteID: paletteID, Err: err}
}

func (e *UnknownPaletteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unknown palette: %q", e.PaletteID)
}

// Unwrap exposes the underlying lookup error.
func (e *UnknownPaletteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidCompositionError is returned when a composition field holds a value
// outside its enumeration.
type InvalidCompositionError struct {
	Field string
	Value string
}

// NewInvalidCompositionError constructs an InvalidCompositionError.
func NewInvalidCompositionError(field, value string) error {
	return &InvalidCompositionError{Field: field, Value: value}
}

func (e *InvalidCompositionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid composition: %s=%q", e.Field, e.Value)
}

// StorageError wraps a failure of the durable theme store (quota exceeded,
// backend unavailable, unreadable data).
type StorageError struct {
	Op  string
	Key string
	Err error
}

// NewStorageError constructs a StorageError.
func NewStorageError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the backend error.
func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ImportError reports a backup blob that was rejected before touching state.
type ImportError struct {
	Reason string
	Err    error
}

// NewImportError constructs an ImportError.
func NewImportError(reason string, err error) error {
	return &ImportError{Reason: reason, Err: err}
}

func (e *ImportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("import error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("import error: %s", e.Reason)
}

// Unwrap exposes the decode failure, if any.
func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ApplyError reports a failed write to the document root. The previous
// document state is still in effect when this error is returned.
type ApplyError struct {
	PaletteID string
	Err       error
}

// NewApplyError constructs an ApplyError.
func NewApplyError(paletteID string, err error) error {
	return &ApplyError{PaletteID: paletteID, Err: err}
}

func (e *ApplyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("apply error [%s]: %v", e.PaletteID, e.Err)
}

// Unwrap exposes the document failure.
func (e *ApplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
