// Package errors provides standardized error handling shared by the HTTP surface and the
// BPMN job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoDataFound    ErrorCode = "NO_DATA_FOUND"
	ErrCodeSourceRejected ErrorCode = "SOURCE_REJECTED"

	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeInvalidQuery    ErrorCode = "INVALID_QUERY"

	ErrCodeComplaintInvalid     ErrorCode = "COMPLAINT_INVALID"
	ErrCodeComplaintStoreFailed ErrorCode = "COMPLAINT_STORE_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
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

// NewNoDataFoundError reports an exhausted fallback chain. Callers render it as an
// empty directory.
func NewNoDataFoundError(attempted int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoDataFound,
		Message:   "No business data available from any source",
		Details:   fmt.Sprintf("sourcesAttempted: %d", attempted),
		Retryable: false,
		Metadata:  map[string]interface{}{"sourcesAttempted": attempted},
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceRejectedError describes why one source in the chain was skipped.
func NewSourceRejectedError(source, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceRejected,
		Message:   fmt.Sprintf("Source '%s' rejected", source),
		Details:   reason,
		Retryable: false,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError keeps the attempted identifier for user-facing diagnostics.
func NewProfileNotFoundError(identifier string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Business profile not found",
		Details:   fmt.Sprintf("identifier: %s", identifier),
		Retryable: false,
		Metadata:  map[string]interface{}{"identifier": identifier},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "Invalid directory query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewComplaintInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeComplaintInvalid,
		Message:   "Complaint validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewComplaintStoreFailedError creates a retryable database error.
func NewComplaintStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeComplaintStoreFailed,
		Message:   "Complaint could not be stored",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Snapshot cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoDataFound:          "NO_DATA_FOUND",
	ErrCodeSourceRejected:       "SOURCE_REJECTED",
	ErrCodeProfileNotFound:      "PROFILE_NOT_FOUND",
	ErrCodeInvalidQuery:         "INVALID_QUERY",
	ErrCodeComplaintInvalid:     "COMPLAINT_INVALID",
	ErrCodeComplaintStoreFailed: "COMPLAINT_STORE_FAILED",
	ErrCodeCacheUnavailable:     "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeComplaintStoreFailed,
		ErrCodeCacheUnavailable:
		return 3

	case "TIMEOUT_ERROR", "EXTERNAL_SERVICE_ERROR":
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// GetErrorCategory groups codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeNoDataFound, ErrCodeSourceRejected, ErrCodeCacheUnavailable:
		return "DATA_SOURCE"
	case ErrCodeProfileNotFound, ErrCodeInvalidQuery:
		return "LOOKUP"
	case ErrCodeComplaintInvalid, ErrCodeComplaintStoreFailed:
		return "COMPLAINT"
	default:
		return "TECHNICAL"
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

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: stdErr.Metadata,
	}
}

// HTTPStatus maps a code onto the status the HTTP surface answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidQuery, ErrCodeComplaintInvalid:
		return http.StatusBadRequest
	case ErrCodeProfileNotFound, "RESOURCE_NOT_FOUND":
		return http.StatusNotFound
	case ErrCodeComplaintStoreFailed, ErrCodeCacheUnavailable, "EXTERNAL_SERVICE_ERROR":
		return http.StatusServiceUnavailable
	case "TIMEOUT_ERROR":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AsStandardError unwraps err looking for a StandardError anywhere in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
