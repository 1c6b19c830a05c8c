package server

import (
	"encoding/json"
	"net/http"
)

// ErrorKind classifies relay error responses.
type ErrorKind string

// Error kinds returned by the relay.
const (
	// ErrKindUnauthorized means no usable access token was available.
	ErrKindUnauthorized ErrorKind = "unauthorized"

	// ErrKindBadRequest means the inbound request was malformed.
	ErrKindBadRequest ErrorKind = "bad_request"

	// ErrKindUpstream means Webex rejected or failed the forwarded call.
	ErrKindUpstream ErrorKind = "upstream_error"

	// ErrKindInternal means the relay itself failed.
	ErrKindInternal ErrorKind = "internal_error"
)

// ErrorResponse is the JSON body of every relay error.
type ErrorResponse struct {
	// Error is the stable error kind
	Error ErrorKind `json:"error"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Status is the HTTP status Webex returned, upstream errors only
	Status int `json:"status,omitempty"`

	// Details is the raw error body Webex returned, upstream errors only
	Details json.RawMessage `json:"details,omitempty"`
}

// httpStatus maps an error kind to its default HTTP status.
func (k ErrorKind) httpStatus() int {
	switch k {
	case ErrKindUnauthorized:
		return http.StatusUnauthorized
	case ErrKindBadRequest:
		return http.StatusBadRequest
	case ErrKindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a structured error response with the kind's default
// status.
func writeError(w http.ResponseWriter, kind ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.httpStatus())
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   kind,
		Message: message,
	})
}

// writeUpstreamError relays a Webex rejection: the provider's status code
// becomes the response status and its body is carried in the details field.
func writeUpstreamError(w http.ResponseWriter, message string, upstreamStatus int, upstreamBody []byte) {
	status := upstreamStatus
	if status == 0 {
		status = http.StatusBadGateway
	}

	var details json.RawMessage
	if json.Valid(upstreamBody) {
		details = upstreamBody
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   ErrKindUpstream,
		Message: message,
		Status:  upstreamStatus,
		Details: details,
	})
}
