package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openvocio/api/pkg/apierror"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/validator"
)

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid request body")
	}
	return nil
}

// respondError maps domain and validation errors onto the API error
// shape.
func respondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		apierror.ValidationFailed("validation failed", verrs).WriteJSON(w)
		return
	}

	switch {
	case shared.IsNotFound(err):
		apierror.NotFound("").WriteJSON(w)
	case shared.IsAlreadyExists(err):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	case shared.IsTransient(err):
		apierror.ServiceUnavailable(err.Error()).WriteJSON(w)
	case shared.IsConfiguration(err):
		apierror.New(http.StatusConflict, apierror.CodeConflict, err.Error()).WriteJSON(w)
	default:
		apierror.FromError(err).WriteJSON(w)
	}
}
