package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abhisek/certprep/internal/apperr"
)

var errNotFound = errors.New("not found")

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps invalid input to 400, missing resources to 404 and
// everything else to 503.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var inv *apperr.InvalidInput
	switch {
	case errors.As(err, &inv):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: inv.Error(), Field: inv.Field})
	case errors.Is(err, errNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.deps.Logger.WithError(err).WithField("path", r.URL.Path).Error("upstream unavailable")
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "upstream unavailable"})
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}
