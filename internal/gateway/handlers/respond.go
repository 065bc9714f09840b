package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/admin"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/payments"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/providers"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/database"
)

// Reasons sent with errors that are not access denials.
const (
	reasonBadRequest       = "bad_request"
	reasonRateLimited      = "rate_limited"
	reasonNoBackend        = "no_backend_available"
	reasonUpstream         = "upstream_error"
	reasonInvalidSignature = "invalid_signature"
	reasonAdminRequired    = "admin_required"
	reasonNotFound         = "not_found"
	reasonInternal         = "internal_error"
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, errorBody{Error: msg, Reason: reason})
}

// writeErr maps err to its status code and reason.
func writeErr(w http.ResponseWriter, err error) {
	status, reason := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, msg, reason)
}

func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	var upstream *providers.StatusError
	var apiErr *openai.APIError
	var reqErr *openai.RequestError

	switch {
	case errors.Is(err, registry.ErrModelNotFound):
		return http.StatusNotFound, access.ReasonModelNotFound
	case errors.Is(err, database.ErrNotFound), errors.Is(err, admin.ErrNoActiveGrant):
		return http.StatusNotFound, reasonNotFound
	case errors.Is(err, access.ErrAuthenticationRequired):
		return http.StatusUnauthorized, access.ReasonAuthenticationRequired
	case errors.Is(err, access.ErrSubscriptionRequired):
		return http.StatusForbidden, access.ReasonSubscriptionRequired
	case errors.Is(err, access.ErrRegionRestricted):
		return http.StatusForbidden, access.ReasonRegionRestricted
	case errors.Is(err, access.ErrAdminRequired):
		return http.StatusForbidden, reasonAdminRequired
	case errors.Is(err, providers.ErrNoBackendAvailable):
		return http.StatusServiceUnavailable, reasonNoBackend
	case errors.Is(err, payments.ErrInvalidSignature):
		return http.StatusUnauthorized, reasonInvalidSignature
	case errors.As(err, &verrs), errors.Is(err, admin.ErrInvalidExpiry):
		return http.StatusBadRequest, reasonBadRequest
	case errors.As(err, &upstream):
		if upstream.Code == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, reasonRateLimited
		}
		return http.StatusBadGateway, reasonUpstream
	case errors.As(err, &apiErr):
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, reasonRateLimited
		}
		return http.StatusBadGateway, reasonUpstream
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, reasonUpstream
	}
	return http.StatusInternalServerError, reasonInternal
}
