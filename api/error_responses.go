// Package api is the thin HTTP demo surface over the registry/ingest/
// collection core: gin handlers that bind a request, forward it to the
// engine, and translate the result back to JSON. Modeled on the teacher's
// api package: a standardized APIError envelope, a ValidationResult type
// shared by every Validate* helper, and one Send* function per error
// shape so handlers never hand-build an error JSON.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorCode tags the machine-readable category of a failed request.
type ErrorCode string

const (
	ErrorCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrorCodeCollectionNotFound ErrorCode = "COLLECTION_NOT_FOUND"
	ErrorCodeCollectionExists   ErrorCode = "COLLECTION_ALREADY_EXISTS"
	ErrorCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON        ErrorCode = "INVALID_JSON"

	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeApplyFailed   ErrorCode = "APPLY_FAILED"
	ErrorCodeSearchFailed  ErrorCode = "SEARCH_FAILED"
	ErrorCodeCommitFailed  ErrorCode = "COMMIT_FAILED"
)

// ErrorDetail carries field-level context for a validation failure.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// APIError is the standardized error response envelope.
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func apiErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response.
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	c.JSON(statusCode, apiErrorResponse(code, message, details...))
}

// SendValidationError sends a validation failure with per-field details.
func SendValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{Field: err.Field, Message: err.Message}
	}
	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendCollectionNotFoundError sends a standardized collection-not-found error.
func SendCollectionNotFoundError(c *gin.Context, id string) {
	SendError(c, http.StatusNotFound, ErrorCodeCollectionNotFound, "Collection '"+id+"' not found")
}

// SendCollectionExistsError sends a standardized collection-already-exists error.
func SendCollectionExistsError(c *gin.Context, id string) {
	SendError(c, http.StatusConflict, ErrorCodeCollectionExists, "Collection '"+id+"' already exists")
}

// SendInvalidJSONError sends a standardized invalid-JSON-body error.
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error.
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError, "Internal error during "+operation+": "+err.Error())
}

// SendApplyError sends a standardized write-operation apply failure.
func SendApplyError(c *gin.Context, err error) {
	SendError(c, http.StatusUnprocessableEntity, ErrorCodeApplyFailed, "Failed to apply operation: "+err.Error())
}

// SendSearchError sends a standardized search failure.
func SendSearchError(c *gin.Context, collection string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeSearchFailed, "Search failed on collection '"+collection+"': "+err.Error())
}

// SendCommitError sends a standardized commit failure.
func SendCommitError(c *gin.Context, collection string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeCommitFailed, "Commit failed on collection '"+collection+"': "+err.Error())
}
