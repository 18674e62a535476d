// Package handler contains the HTTP handlers for the node API. Each handler
// declares the narrow service interface it needs so the package never
// depends on concrete service implementations.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeJSON serializes v with a status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeOpError maps a chain validation error onto a 422 with its machine
// reason attached.
func writeOpError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  err.Error(),
		Reason: string(domain.ReasonOf(err)),
	})
}

// pathID parses the {id} path value as an object id of the wanted type.
func pathID(r *http.Request, want domain.ObjectType) (domain.ObjectID, bool) {
	id, err := domain.ParseID(r.PathValue("id"))
	if err != nil || !id.IsType(want) {
		return domain.ObjectID{}, false
	}
	return id, true
}
