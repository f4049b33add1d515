// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler of the local API sends JSON back to the client (the one
// exception is the export download). Error responses always share the
// same envelope so the UI can show them without knowing which action
// failed.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aanand-mishra/xgrade/internal/types"
)

// Response is the standard envelope returned for error cases.
//
//	{ "status": "error", "kind": "validation", "error": "...", "fields": {"roll": "roll is a required field"} }
type Response struct {
	Status string            `json:"status"`
	Kind   string            `json:"kind,omitempty"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error kinds reported in Response.Kind.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindRemote     = "remote"
	KindBusy       = "busy"
	KindInternal   = "internal"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Kind:   KindInternal,
		Error:  err.Error(),
	}
}

// FromError maps an application error to its HTTP status and envelope:
//
//	*types.ValidationError → 400
//	*types.NotFoundError   → 404
//	types.ErrBusy          → 409
//	*types.RemoteError     → 502
//	anything else          → 500
func FromError(err error) (int, Response) {
	var (
		ve *types.ValidationError
		nf *types.NotFoundError
		re *types.RemoteError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, Response{
			Status: StatusError, Kind: KindValidation, Error: ve.Message, Fields: ve.Fields,
		}
	case errors.As(err, &nf):
		return http.StatusNotFound, Response{Status: StatusError, Kind: KindNotFound, Error: nf.Error()}
	case errors.Is(err, types.ErrBusy):
		return http.StatusConflict, Response{Status: StatusError, Kind: KindBusy, Error: err.Error()}
	case errors.As(err, &re):
		return http.StatusBadGateway, Response{Status: StatusError, Kind: KindRemote, Error: re.Error()}
	default:
		return http.StatusInternalServerError, GeneralError(err)
	}
}

// WriteError is FromError followed by WriteJSON.
func WriteError(w http.ResponseWriter, err error) error {
	status, body := FromError(err)
	return WriteJSON(w, status, body)
}
