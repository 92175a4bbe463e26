package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Store errors
	ErrCodeFormat ErrorCode = "STORE_FORMAT"
	ErrCodeIO     ErrorCode = "IO_ERROR"

	// Enumeration errors
	ErrCodeMalformedCandidate ErrorCode = "MALFORMED_CANDIDATE"
	ErrCodeCommandNotFound    ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed      ErrorCode = "COMMAND_FAILED"

	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Steam location errors
	ErrCodeUserDirNotFound ErrorCode = "USER_DIR_NOT_FOUND"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Step names the pipeline stage an error surfaced in.
type Step string

const (
	StepConfig      Step = "config"
	StepResolve     Step = "resolve"
	StepLoad        Step = "load"
	StepEnumerate   Step = "enumerate"
	StepMaterialize Step = "materialize"
	StepWrite       Step = "write"
)

// SyncError represents a structured error with context
type SyncError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SyncError) WithDetail(key string, value interface{}) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithStep records the pipeline stage the error belongs to.
func (e *SyncError) WithStep(step Step) *SyncError {
	return e.WithDetail("step", string(step))
}

// ToJSON converts the error to JSON
func (e *SyncError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SyncError
func New(code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SyncError
func Wrap(err error, code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As finds the first SyncError in err's chain.
func As(err error) (*SyncError, bool) {
	for err != nil {
		if syncErr, ok := err.(*SyncError); ok {
			return syncErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific SyncError code
func Is(err error, code ErrorCode) bool {
	syncErr, ok := As(err)
	if !ok {
		return false
	}
	return syncErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	syncErr, ok := As(err)
	if !ok {
		return ""
	}
	return syncErr.Code
}

// GetStep extracts the pipeline step from an error, or "" when none was recorded.
func GetStep(err error) Step {
	syncErr, ok := As(err)
	if !ok {
		return ""
	}
	step, _ := syncErr.Details["step"].(string)
	return Step(step)
}
