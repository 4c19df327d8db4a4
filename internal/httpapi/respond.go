package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies. A full submission is well under this.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an error to its HTTP status. InvalidInput is checked first so an
// unknown department, which is both, answers 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contract.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, contract.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contract.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, contract.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNoNarrator):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Server errors are logged and their
// details are not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, status, "internal server error")
		return
	}
	writeMessage(w, status, err.Error())
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return contract.NewInputError("body", "invalid JSON payload")
	}
	return nil
}
