package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"trendgraph/internal/annotations"
	"trendgraph/internal/charts"
	"trendgraph/internal/storage"
)

const maxBodyBytes = 4 << 20

// errorResponse is the body of every non-2xx JSON answer
type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Status: http.StatusText(status)})
}

// decodeJSON reads a JSON request body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownPanel), errors.Is(err, charts.ErrNoPoint),
		errors.Is(err, annotations.ErrNoMarker), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, charts.ErrFormClosed), errors.Is(err, charts.ErrNoSelection), errors.Is(err, charts.ErrNoInstance):
		return http.StatusConflict
	case errors.Is(err, annotations.ErrEmptyContent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// intParam parses an integer query parameter, returning def when absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
