package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest writes a 400 error with kind bad_request.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Kind: string(domain.KindBadRequest)})
}

// KindedError maps a domain error to its HTTP status and writes the standard
// envelope. The full error is logged server-side; only the public-safe
// message goes to the client, so internal details (and credential material)
// never leak through an error payload.
func KindedError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	if status >= 500 {
		logger.Error("request failed", "kind", kind, "error", err)
	} else {
		logger.Warn("request rejected", "kind", kind, "error", err)
	}
	JSON(w, status, ErrorResponse{Error: domain.PublicMessage(err), Kind: string(kind)})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindTenantNotFound:
		return http.StatusNotFound
	case domain.KindCredentialNotFound, domain.KindCredentialDenied:
		return http.StatusUnprocessableEntity
	case domain.KindUpstreamAuth, domain.KindUpstreamInvalid:
		return http.StatusBadGateway
	case domain.KindUpstreamRateLimited:
		return http.StatusServiceUnavailable
	case domain.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
