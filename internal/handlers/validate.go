package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxJSONBody caps JSON request bodies. Chat messages top out at a few
// kilobytes; anything near this limit is not a legitimate request.
const maxJSONBody = 64 << 10

// decodeJSON reads a size-capped JSON body into dst and returns a
// client-facing message on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("expected application/json, got %s", ct)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxJSONBody)
		case errors.Is(err, io.EOF):
			return errors.New("empty request body")
		default:
			return errors.New("malformed JSON request body")
		}
	}

	// Reject trailing content after the first JSON document.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
