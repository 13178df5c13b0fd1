package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the error body. Every non-2xx response uses the
// same envelope: {"error": {"code": ..., "message": ..., "details": [...]}}.
const (
	codeUnauthorized     = "UNAUTHORIZED"
	codeForbidden        = "FORBIDDEN"
	codeNotFound         = "NOT_FOUND"
	codeValidation       = "VALIDATION_ERROR"
	codeRateLimited      = "RATE_LIMITED"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeInternal         = "INTERNAL_SERVER_ERROR"
)

type errorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error envelope. Details are never null in the wire
// shape; an absent list encodes as [].
func writeError(w http.ResponseWriter, status int, code, message string, details []string) {
	if details == nil {
		details = []string{}
	}
	writeJSON(w, status, errorBody{Error: errorPayload{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, codeUnauthorized, message, nil)
}

func writeForbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, codeForbidden, "You can only access your own resources", nil)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, codeNotFound, message, nil)
}

func writeValidationError(w http.ResponseWriter, details []string) {
	writeError(w, http.StatusUnprocessableEntity, codeValidation, "Invalid input data", details)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred", nil)
}
