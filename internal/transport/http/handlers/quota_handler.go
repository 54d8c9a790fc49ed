package handlers

import (
	"net/http"

	authsvc "github.com/botalove/backend/internal/services/auth"
	quotasvc "github.com/botalove/backend/internal/services/quota"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type QuotaHandler struct {
	service *quotasvc.Service
}

func NewQuotaHandler(service *quotasvc.Service) *QuotaHandler {
	return &QuotaHandler{service: service}
}

func (h *QuotaHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "QUOTA_SERVICE_UNAVAILABLE", "quota service is unavailable")
		return
	}

	snapshot, err := h.service.GetSnapshot(r.Context(), identity.UserID, timezoneFromRequest(r))
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load quota")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.QuotaResponse{
		Tier:           string(snapshot.Tier),
		ViewsRemaining: snapshot.ViewsRemaining,
		LikesRemaining: snapshot.LikesRemaining,
		ResetAt:        snapshot.ResetAt.UTC(),
	})
}
