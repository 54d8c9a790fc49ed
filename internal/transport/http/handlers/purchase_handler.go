package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/botalove/backend/internal/services/auth"
	paysvc "github.com/botalove/backend/internal/services/payments"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type PurchaseHandler struct {
	service *paysvc.Service
}

func NewPurchaseHandler(service *paysvc.Service) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PAYMENT_SERVICE_UNAVAILABLE", "payment service is unavailable")
		return
	}

	var req dto.PurchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.SKU) == "" || strings.TrimSpace(req.IdempotencyKey) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "sku and idempotency_key are required")
		return
	}

	intent, err := h.service.BeginPurchase(r.Context(), identity.UserID, req.SKU, req.IdempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, paysvc.ErrUnknownSKU):
			writeBadRequest(w, "UNKNOWN_SKU", "unknown product sku")
		case errors.Is(err, paysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create purchase")
		}
		return
	}

	tx := intent.Transaction
	httperrors.Write(w, http.StatusOK, dto.PurchaseCreateResponse{
		TransactionID: tx.ID,
		SKU:           tx.ProductSKU,
		Provider:      tx.Provider,
		AmountCents:   tx.AmountCents,
		Currency:      tx.Currency,
		Status:        tx.Status,
		Created:       intent.Created,
	})
}

// Webhook confirms a pending transaction by provider reference. It is the
// provider calling, so there is no bearer identity here.
func (h *PurchaseHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PAYMENT_SERVICE_UNAVAILABLE", "payment service is unavailable")
		return
	}

	var req dto.PurchaseWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "reference is required")
		return
	}

	result, err := h.service.ConfirmPurchase(r.Context(), req.Provider, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, paysvc.ErrTransactionNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "TRANSACTION_NOT_FOUND",
				Message: "unknown payment reference",
			})
		case errors.Is(err, paysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid webhook payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to confirm purchase")
		}
		return
	}

	tx := result.Transaction
	httperrors.Write(w, http.StatusOK, dto.PurchaseWebhookResponse{
		OK:            true,
		TransactionID: tx.ID,
		UserID:        tx.ActorID,
		SKU:           tx.ProductSKU,
		Status:        tx.Status,
		Idempotent:    result.Idempotent,
	})
}
