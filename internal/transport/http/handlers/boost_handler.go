package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/botalove/backend/internal/services/auth"
	boostsvc "github.com/botalove/backend/internal/services/boosts"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type BoostHandler struct {
	service *boostsvc.Service
}

func NewBoostHandler(service *boostsvc.Service) *BoostHandler {
	return &BoostHandler{service: service}
}

func (h *BoostHandler) Activate(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "BOOST_SERVICE_UNAVAILABLE", "boost service is unavailable")
		return
	}

	result, err := h.service.Boost(r.Context(), identity.UserID, timezoneFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, boostsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid boost request")
		case errors.Is(err, gatesvc.ErrConcurrentConflict):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "CONCURRENT_CONFLICT",
				Message: "concurrent charge conflict, retry",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to activate boost")
		}
		return
	}

	if !result.Charge.Granted {
		httperrors.Write(w, http.StatusPaymentRequired, dto.BoostResponse{
			OK:     false,
			Charge: mapCharge(result.Charge),
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BoostResponse{
		OK:        true,
		ExpiresAt: result.Window.ExpiresAt.UTC(),
		Charge:    mapCharge(result.Charge),
	})
}

func (h *BoostHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "BOOST_SERVICE_UNAVAILABLE", "boost service is unavailable")
		return
	}

	status, err := h.service.Status(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load boost status")
		return
	}

	payload := dto.BoostStatusResponse{
		Active:       status.Active,
		RemainingSec: int64(status.Remaining.Seconds()),
	}
	if status.Active {
		expiresAt := status.ExpiresAt.UTC()
		payload.ExpiresAt = &expiresAt
	}

	httperrors.Write(w, http.StatusOK, payload)
}
