// Package errors provides structured error types for the benchmarking
// pipeline. Error values carry stack traces via cockroachdb/errors and can be
// attached to zerolog events as structured objects.
package errors

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warnMu     sync.Mutex
	warnLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// SetWarnOutput redirects the warning stream. The default is stderr.
func SetWarnOutput(w io.Writer) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnLogger = zerolog.New(w).With().Timestamp().Logger()
}

// Warn emits a non-fatal warning through zerolog. Warning and error types
// that implement zerolog.LogObjectMarshaler are embedded as structured
// fields.
func Warn(w error) {
	warnMu.Lock()
	defer warnMu.Unlock()

	event := warnLogger.Warn()
	var obj zerolog.LogObjectMarshaler
	if As(w, &obj) {
		event = event.EmbedObject(obj)
	}
	event.Msg(w.Error())
}

// SelectionWarning reports a degenerate outcome of a data-driven selection,
// for example a hyperparameter search ending on the edge of its grid.
type SelectionWarning struct {
	EstimatorName string
	Message       string
}

func (w *SelectionWarning) Error() string {
	return fmt.Sprintf("brainage: %s: %s", w.EstimatorName, w.Message)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *SelectionWarning) MarshalZerologObject(event *zerolog.Event) {
	event.Str("estimator", w.EstimatorName).
		Str("reason", w.Message).
		Str("type", "SelectionWarning")
}

// NewSelectionWarning creates a SelectionWarning with a stack trace.
func NewSelectionWarning(estimator, message string) error {
	err := &SelectionWarning{EstimatorName: estimator, Message: message}
	return errors.WithStack(err)
}

// NotFittedError is returned when Predict or Transform is called on an
// estimator before Fit.
type NotFittedError struct {
	EstimatorName string
	Method        string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("brainage: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.EstimatorName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("estimator", e.EstimatorName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(estimator, method string) error {
	err := &NotFittedError{EstimatorName: estimator, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input data has an unexpected shape.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("brainage: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when a parameter fails validation, for example
// an unknown dataset or benchmark name.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("brainage: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid for an operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("brainage: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a general estimator failure wrapping an underlying cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("brainage: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("brainage: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast to target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrNotImplemented is returned by benchmark variants that are declared
	// but have no implementation yet.
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData is returned when an estimator receives empty input.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a matrix factorization fails.
	ErrSingularMatrix = New("singular matrix")
)
