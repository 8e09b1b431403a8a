// Package errors defines the typed errors raised by the join pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError indicates a configured join key column is missing from an
// input schema. It is fatal and raised before any row is processed.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset '%s': join key column(s) missing from schema: %s",
		e.Dataset, strings.Join(e.Missing, ", "))
}

// NewSchemaError creates a new schema error
func NewSchemaError(dataset string, missing []string) *SchemaError {
	return &SchemaError{Dataset: dataset, Missing: missing}
}

// IsSchemaError checks if an error is a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// RecordShapeError indicates a record does not conform to its dataset's
// declared schema (wrong arity, or a value that cannot be coerced).
type RecordShapeError struct {
	Dataset string
	Row     int
	Message string
	Inner   error
}

func (e *RecordShapeError) Error() string {
	return fmt.Sprintf("dataset '%s' row %d: %s", e.Dataset, e.Row, e.Message)
}

func (e *RecordShapeError) Unwrap() error {
	return e.Inner
}

// NewRecordShapeError creates a new record shape error
func NewRecordShapeError(dataset string, row int, message string, inner error) *RecordShapeError {
	return &RecordShapeError{Dataset: dataset, Row: row, Message: message, Inner: inner}
}

// IsRecordShapeError checks if an error is a RecordShapeError
func IsRecordShapeError(err error) bool {
	var re *RecordShapeError
	return errors.As(err, &re)
}

// TransformError indicates a transform rule failed on a record.
type TransformError struct {
	Rule    string
	Row     int
	Message string
	Inner   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("rule '%s' record %d: %s", e.Rule, e.Row, e.Message)
}

func (e *TransformError) Unwrap() error {
	return e.Inner
}

// NewTransformError creates a new transform error
func NewTransformError(rule string, row int, message string, inner error) *TransformError {
	return &TransformError{Rule: rule, Row: row, Message: message, Inner: inner}
}

// IsTransformError checks if an error is a TransformError
func IsTransformError(err error) bool {
	var te *TransformError
	return errors.As(err, &te)
}

// ConfigError indicates an invalid job or runtime configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config field '%s': %s", e.Field, e.Message)
	}
	return e.Message
}

// NewConfigError creates a new config error
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// IsConfigError checks if an error is a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// OutputMismatchError indicates two execution engines produced different
// bytes for the same job, violating the engine equivalence contract.
type OutputMismatchError struct {
	EngineA string
	EngineB string
}

func (e *OutputMismatchError) Error() string {
	return fmt.Sprintf("engines '%s' and '%s' produced different output for the same job", e.EngineA, e.EngineB)
}

// NewOutputMismatchError creates a new output mismatch error
func NewOutputMismatchError(a, b string) *OutputMismatchError {
	return &OutputMismatchError{EngineA: a, EngineB: b}
}
