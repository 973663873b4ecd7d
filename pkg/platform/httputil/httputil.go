package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "laurel/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and error responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": string(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeCertificateExists:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeNotAuthorizedSigner:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeCycleDetected, dErrors.CodeInvalidPrerequisite, dErrors.CodeInvalidRenewal, dErrors.CodePrerequisitesNotMet:
		return http.StatusUnprocessableEntity
	case dErrors.CodeRequestNotPending, dErrors.CodeAlreadySigned, dErrors.CodeAlreadyExecuted, dErrors.CodeInsufficientSignatures:
		return http.StatusConflict
	case dErrors.CodeRequestExpired:
		return http.StatusGone
	case dErrors.CodeBatchTooLarge, dErrors.CodeGraphTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
