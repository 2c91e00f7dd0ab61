package log

import (
	"errors"
	"sort"

	"expensify/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldError          = "error"
	FieldErrorType      = "error_type"
	FieldOperation      = "operation"
	FieldRuleID         = "rule_id"
	FieldTransactionID  = "transaction_id"
	FieldOccurrenceDate = "occurrence_date"
	FieldProcessingDate = "processing_date"
	FieldCreated        = "created"
	FieldFailed         = "failed"
	FieldBackend        = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentProcessor = "processor"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentBackend   = "backend"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeLimit         = "limit_error"
	ErrorTypeInternal      = "internal_error"
)

// ErrorType classifies err by the core error kinds.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return ErrorTypeConfiguration
	case errors.Is(err, core.ErrDuplicate):
		return ErrorTypeConflict
	case errors.Is(err, core.ErrNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, core.ErrStorage):
		return ErrorTypeDatabase
	case errors.Is(err, core.ErrCatchUpLimit):
		return ErrorTypeLimit
	default:
		return ErrorTypeInternal
	}
}

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error and its type
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = ErrorType(err)
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRule adds the rule ID
func (f LogFields) WithRule(ruleID string) LogFields {
	f[FieldRuleID] = ruleID
	return f
}

// WithPass adds the totals of a processing pass
func (f LogFields) WithPass(date core.Date, created, failed int) LogFields {
	f[FieldProcessingDate] = date.ISO()
	f[FieldCreated] = created
	f[FieldFailed] = failed
	return f
}

// ToSlice converts LogFields to a slice for slog, sorted by key
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
