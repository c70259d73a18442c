package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the standardized error payload returned to collaborators.
type APIError struct {
	StatusCode int    `json:"-"` // HTTP status code, not included in the JSON body
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError creates a new APIError instance.
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// RespondWithError sends a standardized JSON error response.
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Application-level error codes surfaced in responses.
const (
	ErrCodeBadRequest             = "BAD_REQUEST"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeInternalServerError    = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeInsufficientStock      = "INSUFFICIENT_STOCK"
	ErrCodeInvalidMovement        = "INVALID_MOVEMENT"
	ErrCodeIncompleteSplit        = "INCOMPLETE_SPLIT"
	ErrCodeDuplicateAssignment    = "DUPLICATE_ASSIGNMENT"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// RespondValidationFailed is a shorthand for the common 400 validation response.
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}
