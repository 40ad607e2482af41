package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rafata1/gocommerce/apperror"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %s", err)
	}
}

type errorBody struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

var kindStatus = map[apperror.Kind]int{
	apperror.NotFound:          http.StatusNotFound,
	apperror.Forbidden:         http.StatusForbidden,
	apperror.InvalidArgument:   http.StatusBadRequest,
	apperror.InsufficientStock: http.StatusBadRequest,
	apperror.EmptyCart:         http.StatusBadRequest,
	apperror.InvalidTransition: http.StatusConflict,
	apperror.Unauthorized:      http.StatusUnauthorized,
	apperror.Conflict:          http.StatusBadRequest,
	apperror.StorageFailure:    http.StatusInternalServerError,
}

// respondError maps an error kind to an HTTP status. Only the kind and
// the user-facing message cross the boundary; causes stay in the log.
func respondError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %s", err)
	}
	respondJSON(w, status, errorBody{
		Kind:    kind,
		Message: apperror.MessageOf(err),
	})
}
