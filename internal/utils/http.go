package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// CodeBadRequest marks bodies DecodeJSON could not parse.
const CodeBadRequest = "BAD_REQUEST"

// JSON writes a JSON response with status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JSONError writes {"error": "...", "code": "..."} with a given status.
func JSONError(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, map[string]string{"error": msg, "code": code})
}

// DecodeJSON parses the JSON body into v and handles invalid JSON.
// On failure the 400 response has already been written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		JSONError(w, http.StatusBadRequest, CodeBadRequest, "empty request body")
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			JSONError(w, http.StatusBadRequest, CodeBadRequest, "empty request body")
			return err
		}
		JSONError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON: "+err.Error())
		return err
	}

	return nil
}
