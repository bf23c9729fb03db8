package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/visitor-desk/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	write(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	write(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// WriteCoded writes an error whose status is derived from its code.
func WriteCoded(w http.ResponseWriter, code, message string, fields []string) {
	write(w, StatusFor(code), ErrorResponse{Error: message, Code: code, Fields: fields})
}

func write(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// Error codes. The first group is the service error taxonomy; the rest belong
// to the HTTP layer.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeProtectedTarget     = "PROTECTED_TARGET"
	CodeSelfDeleteForbidden = "SELF_DELETE_FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeNetwork             = "NETWORK_ERROR"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeEmailExists         = "EMAIL_EXISTS"

	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeExpiredToken  = "EXPIRED_TOKEN"
	CodeInvalidToken  = "INVALID_TOKEN"
)

var statusByCode = map[string]int{
	CodeValidation:          http.StatusBadRequest,
	CodeInvalidInput:        http.StatusBadRequest,
	CodeAccessDenied:        http.StatusForbidden,
	CodePermissionDenied:    http.StatusForbidden,
	CodeProtectedTarget:     http.StatusConflict,
	CodeSelfDeleteForbidden: http.StatusConflict,
	CodeEmailExists:         http.StatusConflict,
	CodeNotFound:            http.StatusNotFound,
	CodeNetwork:             http.StatusBadGateway,
	CodeInvalidCredentials:  http.StatusUnauthorized,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeExpiredToken:        http.StatusUnauthorized,
	CodeInvalidToken:        http.StatusUnauthorized,
	CodeRateLimit:           http.StatusTooManyRequests,
}

// StatusFor maps an error code to its HTTP status. Unknown codes are 500.
func StatusFor(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
