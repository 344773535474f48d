package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bankdash/internal/shared/apperror"
	"bankdash/internal/shared/logger"
	"bankdash/internal/shared/middleware"
)

const maxBodySize = 1 << 20 // 1 MiB

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and code. Internal failures are logged
// and their detail is hidden from the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Code: apperror.Code(err), Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", apperror.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body: %v", apperror.ErrValidation, err)
	}
	return nil
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, r, apperror.ErrUnauthorized)
	}
	return userID, ok
}
