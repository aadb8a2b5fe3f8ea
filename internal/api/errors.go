package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/topology-engine/routing"
	"github.com/signalsfoundry/topology-engine/topology"
)

// ErrBadRequest is the package-level sentinel for malformed query input.
var ErrBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps engine errors onto HTTP status codes. Query-time
// errors are recoverable by contract; nothing here touches store state.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, topology.ErrNotFound):
		status = http.StatusNotFound
		code = "not-found"
	case errors.Is(err, routing.ErrNoRouteSource):
		status = http.StatusNotFound
		code = "no-route-source"
	case errors.Is(err, ErrBadRequest):
		status = http.StatusBadRequest
		code = "bad-request"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
