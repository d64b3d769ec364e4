package errors

import (
	"errors"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeCircularReference   = "CIRCULAR_REFERENCE"
	CodeAlreadyRegistered   = "ALREADY_REGISTERED"
	CodeNotFound            = "NOT_FOUND"
	CodeCreationNotAllowed  = "CREATION_NOT_ALLOWED"
	CodeCurrentlyInCreation = "CURRENTLY_IN_CREATION"
	CodeInconsistentState   = "INCONSISTENT_STATE"
	CodeCreationFailed      = "CREATION_FAILED"
)

// =============================================================================
// ANCHOR ERROR (STRUCTURED ERROR)
// =============================================================================

// AnchorError represents a structured error with context
type AnchorError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]interface{}

	// Related holds exceptions that were suppressed while this error was
	// brewing, e.g. failures of nested constructions that were later retried.
	Related []error
}

func (e *AnchorError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AnchorError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for AnchorError
// Compares by error code, allowing matching against sentinel errors
func (e *AnchorError) Is(target error) bool {
	t, ok := target.(*AnchorError)
	if !ok {
		return false
	}
	// Match if codes are the same (and not empty)
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AnchorError) WithContext(key string, value interface{}) *AnchorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// AddRelated records a suppressed cause on the error.
func (e *AnchorError) AddRelated(err error) *AnchorError {
	if err != nil {
		e.Related = append(e.Related, err)
	}
	return e
}

// RelatedCauses returns the suppressed causes attached to the error.
func (e *AnchorError) RelatedCauses() []error {
	return e.Related
}

// IsCode reports whether err carries an AnchorError with the given code.
func IsCode(err error, code string) bool {
	var anchorErr *AnchorError
	return errors.As(err, &anchorErr) && anchorErr.Code == code
}

// AsCode extracts an AnchorError with the given code from err's chain into
// target and reports whether one was found.
func AsCode(err error, code string, target **AnchorError) bool {
	var anchorErr *AnchorError
	if errors.As(err, &anchorErr) && anchorErr.Code == code {
		*target = anchorErr
		return true
	}
	return false
}

// ErrInvalidArgument creates an invalid-argument error for a missing or
// empty required value
func ErrInvalidArgument(argument, reason string) *AnchorError {
	return &AnchorError{
		Code:      CodeInvalidArgument,
		Message:   "invalid argument '" + argument + "': " + reason,
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"argument": argument},
	}
}

// ErrCircularReference creates an alias-cycle error
func ErrCircularReference(name, alias string) *AnchorError {
	return &AnchorError{
		Code: CodeCircularReference,
		Message: "cannot register alias '" + alias + "' for name '" + name +
			"': circular reference - '" + name + "' is a direct or indirect alias for '" + alias + "' already",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"name": name, "alias": alias},
	}
}

// ErrAliasAlreadyRegistered creates an alias-collision error
func ErrAliasAlreadyRegistered(alias, name, registeredName string) *AnchorError {
	return &AnchorError{
		Code: CodeAlreadyRegistered,
		Message: "cannot register alias '" + alias + "' for name '" + name +
			"': it is already registered for name '" + registeredName + "'",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"alias": alias, "name": name, "registered_name": registeredName},
	}
}

// ErrSingletonAlreadyRegistered creates a duplicate-registration error
func ErrSingletonAlreadyRegistered(name string) *AnchorError {
	return &AnchorError{
		Code:      CodeAlreadyRegistered,
		Message:   "singleton '" + name + "' is already registered",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"name": name},
	}
}

// ErrAliasNotFound creates a not-found error for an unregistered alias
func ErrAliasNotFound(alias string) *AnchorError {
	return &AnchorError{
		Code:      CodeNotFound,
		Message:   "no alias '" + alias + "' registered",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"alias": alias},
	}
}

// ErrCreationNotAllowed creates an error for get-or-create attempted while
// the registry is tearing down its singletons
func ErrCreationNotAllowed(name string) *AnchorError {
	return &AnchorError{
		Code: CodeCreationNotAllowed,
		Message: "singleton creation of '" + name + "' is not allowed while the singletons " +
			"of this registry are in destruction (do not request an instance from a destroy callback)",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"name": name},
	}
}

// ErrCurrentlyInCreation creates an error for an unsupported re-entrant
// construction of the same name
func ErrCurrentlyInCreation(name string) *AnchorError {
	return &AnchorError{
		Code:      CodeCurrentlyInCreation,
		Message:   "singleton '" + name + "' is currently in creation: unresolvable circular reference",
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"name": name},
	}
}

// ErrInconsistentState creates an internal invariant-violation error
func ErrInconsistentState(message string) *AnchorError {
	return &AnchorError{
		Code:      CodeInconsistentState,
		Message:   message,
		Cause:     nil,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// ErrCreationFailed creates a creation-failure error. Factory callbacks are
// expected to wrap their failures with it; errors of this kind get the
// registry's suppressed exceptions attached as related causes.
func ErrCreationFailed(name string, cause error) *AnchorError {
	return &AnchorError{
		Code:      CodeCreationFailed,
		Message:   "creation of singleton '" + name + "' failed",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"name": name},
	}
}
