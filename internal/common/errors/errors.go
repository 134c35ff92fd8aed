// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidSlot    ErrorCode = "INVALID_SLOT"

	ErrCodeSlotUnavailable ErrorCode = "SLOT_UNAVAILABLE"
	ErrCodeQuoteNotFound   ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeQuoteMismatch   ErrorCode = "QUOTE_MISMATCH"

	ErrCodeBookingWriteFailed   ErrorCode = "BOOKING_WRITE_FAILED"
	ErrCodeBookingReadFailed    ErrorCode = "BOOKING_READ_FAILED"
	ErrCodeQuoteStoreFailed     ErrorCode = "QUOTE_STORE_FAILED"
	ErrCodeGeocodingUnavailable ErrorCode = "GEOCODING_UNAVAILABLE"

	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidRequestError reports a missing or malformed request field.
func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid scheduling request", details, false, nil)
}

// NewInvalidSlotError reports a chosen slot that cannot be parsed or is outside business hours.
func NewInvalidSlotError(value string, cause error) *StandardError {
	details := fmt.Sprintf("chosenSlot: %q", value)
	if cause != nil {
		details = fmt.Sprintf("%s, error: %s", details, cause.Error())
	}
	return newError(ErrCodeInvalidSlot, "Chosen slot is not a valid appointment time", details, false, cause)
}

// NewSlotUnavailableError reports a slot already booked or locked by a concurrent confirmation.
func NewSlotUnavailableError(technicianID string, at time.Time) *StandardError {
	return newError(ErrCodeSlotUnavailable, "Chosen slot is no longer available",
		fmt.Sprintf("technicianId: %s, slot: %s", technicianID, at.Format(time.RFC3339)), false, nil)
}

func NewQuoteNotFoundError(quoteID string) *StandardError {
	return newError(ErrCodeQuoteNotFound, "Quote not found or expired",
		fmt.Sprintf("quoteId: %s", quoteID), false, nil)
}

func NewQuoteMismatchError(quoteID string) *StandardError {
	return newError(ErrCodeQuoteMismatch, "Quote belongs to a different customer",
		fmt.Sprintf("quoteId: %s", quoteID), false, nil)
}

// NewBookingWriteFailedError wraps a failed confirmation transaction. Retryable by the engine.
func NewBookingWriteFailedError(err error) *StandardError {
	return newError(ErrCodeBookingWriteFailed, "Failed to persist booking", err.Error(), true, err)
}

func NewBookingReadFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeBookingReadFailed, "Failed to read booking data",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewQuoteStoreFailedError(err error) *StandardError {
	return newError(ErrCodeQuoteStoreFailed, "Failed to access quote session store", err.Error(), true, err)
}

func NewGeocodingUnavailableError(err error) *StandardError {
	return newError(ErrCodeGeocodingUnavailable, "Geocoding service unavailable", err.Error(), true, err)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in the BPMN.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRequest:       "INVALID_REQUEST",
	ErrCodeInvalidSlot:          "INVALID_SLOT",
	ErrCodeSlotUnavailable:      "SLOT_UNAVAILABLE",
	ErrCodeQuoteNotFound:        "QUOTE_NOT_FOUND",
	ErrCodeQuoteMismatch:        "QUOTE_MISMATCH",
	ErrCodeBookingWriteFailed:   "BOOKING_WRITE_FAILED",
	ErrCodeBookingReadFailed:    "BOOKING_READ_FAILED",
	ErrCodeQuoteStoreFailed:     "QUOTE_STORE_FAILED",
	ErrCodeGeocodingUnavailable: "GEOCODING_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBookingWriteFailed,
		ErrCodeBookingReadFailed,
		ErrCodeQuoteStoreFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout,
		ErrCodeGeocodingUnavailable:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SLOT") || strings.Contains(codeStr, "QUOTE_MISMATCH") || strings.Contains(codeStr, "QUOTE_NOT_FOUND"):
		return "BOOKING"
	case strings.Contains(codeStr, "BOOKING") || strings.Contains(codeStr, "QUOTE_STORE"):
		return "DATABASE"
	case strings.Contains(codeStr, "GEOCODING") || strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "EXTERNAL"
	default:
		return "OTHER"
	}
}
