package api

import (
	"encoding/json"
	"net/http"
)

// HTTPError is an HTTP status code paired with a stable machine-readable
// error key. Keys are part of the API contract; clients switch on them.
type HTTPError struct {
	Code int    `json:"-"`
	Key  string `json:"error"`
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest    = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized  = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrNotFound      = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrInternalError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders an HTTPError as a JSON body.
func writeError(w http.ResponseWriter, err HTTPError) {
	writeJSON(w, err.Code, err)
}
