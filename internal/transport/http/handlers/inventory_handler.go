package handlers

import (
	"net/http"

	authsvc "github.com/botalove/backend/internal/services/auth"
	invsvc "github.com/botalove/backend/internal/services/inventory"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type InventoryHandler struct {
	service *invsvc.Service
}

func NewInventoryHandler(service *invsvc.Service) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "INVENTORY_SERVICE_UNAVAILABLE", "inventory service is unavailable")
		return
	}

	balances, err := h.service.Balances(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load inventory")
		return
	}

	payload := make(map[string]int, len(balances))
	for item, balance := range balances {
		payload[string(item)] = balance
	}

	httperrors.Write(w, http.StatusOK, dto.InventoryResponse{Balances: payload})
}
