package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/botalove/backend/internal/services/auth"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

// AuthorizeHandler charges a named action through the gate. Clients use it
// for actions that have no richer endpoint, profile views in particular.
type AuthorizeHandler struct {
	service *gatesvc.Service
}

func NewAuthorizeHandler(service *gatesvc.Service) *AuthorizeHandler {
	return &AuthorizeHandler{service: service}
}

func (h *AuthorizeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "GATE_SERVICE_UNAVAILABLE", "entitlement gate is unavailable")
		return
	}

	var req dto.AuthorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Action)
	action, ok := gatesvc.ActionByName(name)
	if !ok {
		writeBadRequest(w, "UNKNOWN_ACTION", "unknown action name")
		return
	}

	decision, err := h.service.Authorize(r.Context(), identity.UserID, action, timezoneFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, gatesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid authorize request")
		case errors.Is(err, gatesvc.ErrConcurrentConflict):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "CONCURRENT_CONFLICT",
				Message: "concurrent charge conflict, retry",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to authorize action")
		}
		return
	}

	status := http.StatusOK
	if !decision.Granted {
		status = http.StatusPaymentRequired
	}

	httperrors.Write(w, status, dto.AuthorizeResponse{
		Action: action.Name,
		Charge: mapCharge(decision),
	})
}
