package httputil

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdflow/pkg/errors"
)

// DefaultBodyLimit caps request bodies read by DecodeJSON.
const DefaultBodyLimit = 8 << 20

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and a message safe to show to users.
type ErrorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an [ErrorBody]. Server-side failures are logged
// with the underlying cause; client errors are not.
func WriteError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "code", code, "err", err)
	}
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: errors.UserMessage(err)}})
}

// DecodeJSON decodes the body of r into v. Bodies over limit bytes, unknown
// fields and trailing data are rejected. A non-positive limit uses
// DefaultBodyLimit.
func DecodeJSON(r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, limit+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body holds more than one JSON value")
	}
	if n := dec.InputOffset(); n > limit {
		return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", limit)
	}
	return nil
}
