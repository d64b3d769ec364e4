package logger

import (
	"github.com/xraph/go-utils/log"
)

// Field represents a structured log field.
type Field = log.Field

// Field constructors that return wrapped fields.
var (
	// String creates a string field.
	String = log.String
	// Int creates an int field.
	Int = log.Int
	// Bool creates a bool field.
	Bool = log.Bool
	// Duration creates a duration field.
	Duration = log.Duration
	// Error creates an error field.
	Error = log.Error
	// Strings creates a string slice field.
	Strings = log.Strings
	// Any creates a field with any value.
	Any = log.Any
)
