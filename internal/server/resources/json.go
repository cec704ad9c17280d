// Package resources holds the leaf handlers mounted into the dispatch tree
// and the list of prefixes they are mounted under.
package resources

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Matrix error codes returned by the JSON resources.
const (
	ErrCodeUnrecognized = "M_UNRECOGNIZED"
	ErrCodeBadJSON      = "M_BAD_JSON"
	ErrCodeInvalidParam = "M_INVALID_PARAM"
	ErrCodeUserInUse    = "M_USER_IN_USE"
	ErrCodeNotFound     = "M_NOT_FOUND"
	ErrCodeTooLarge     = "M_TOO_LARGE"
	ErrCodeUnknown      = "M_UNKNOWN"
)

// maxJSONBody caps request bodies on the JSON resources.
const maxJSONBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, errcode, msg string) {
	writeJSON(w, status, map[string]string{"errcode": errcode, "error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.UseNumber()
	return decoder.Decode(dest)
}
