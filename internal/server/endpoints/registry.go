package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/mapping"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StyleGuideEndpoint{},
		&ListPromptsEndpoint{},
		&GenerateMappingEndpoint{},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse = api.ErrorResponse

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// writeMappingError answers with the user message and kind for err.
func writeMappingError(w http.ResponseWriter, err error) {
	kind := mapping.Kind(err)
	writeError(w, StatusForKind(kind), kind, mapping.UserMessage(err))
}

// StatusForKind maps a mapping error kind to an HTTP status.
func StatusForKind(kind string) int {
	switch kind {
	case mapping.KindMissingFile, mapping.KindInvalidJSON, mapping.KindInvalidXML, mapping.KindUnsupportedFormat:
		return http.StatusBadRequest
	case mapping.KindMalformedXSLT:
		return http.StatusUnprocessableEntity
	case mapping.KindRateLimited, mapping.KindNoProvider:
		return http.StatusServiceUnavailable
	case mapping.KindTimeout:
		return http.StatusGatewayTimeout
	case mapping.KindConnectionRefused, mapping.KindTLS,
		mapping.KindUnauthorized, mapping.KindNotFound, mapping.KindBadRequest,
		mapping.KindServerError, mapping.KindEmptyResponse:
		return http.StatusBadGateway
	case mapping.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
