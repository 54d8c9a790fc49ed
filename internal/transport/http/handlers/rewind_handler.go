package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/botalove/backend/internal/services/auth"
	matchingsvc "github.com/botalove/backend/internal/services/matching"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type RewindHandler struct {
	service *matchingsvc.Service
}

func NewRewindHandler(service *matchingsvc.Service) *RewindHandler {
	return &RewindHandler{service: service}
}

func (h *RewindHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REWIND_SERVICE_UNAVAILABLE", "rewind service is unavailable")
		return
	}

	result, err := h.service.Undo(r.Context(), identity.UserID, timezoneFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, matchingsvc.ErrNothingToUndo):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "NOTHING_TO_UNDO",
				Message: "no decisions to undo",
			})
		case errors.Is(err, matchingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid rewind request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process rewind")
		}
		return
	}

	if !result.Charge.Granted {
		httperrors.Write(w, http.StatusPaymentRequired, dto.RewindResponse{
			OK:     false,
			Charge: mapCharge(result.Charge),
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RewindResponse{
		OK:             true,
		UndoneKind:     string(result.UndoneKind),
		UndoneTargetID: result.UndoneTargetID,
		Charge:         mapCharge(result.Charge),
	})
}
