package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/botalove/backend/internal/services/auth"
	listingsvc "github.com/botalove/backend/internal/services/listings"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type ListingsHandler struct {
	service *listingsvc.Service
}

func NewListingsHandler(service *listingsvc.Service) *ListingsHandler {
	return &ListingsHandler{service: service}
}

func (h *ListingsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	var req dto.ListingPublishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "title is required")
		return
	}

	quote, err := h.service.Publish(r.Context(), identity.UserID, req.Title, req.DurationDays, req.HighlightDays)
	if err != nil {
		if errors.Is(err, listingsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid listing parameters")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to publish listing")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ListingQuoteResponse{
		ListingID:          quote.Listing.ID,
		Status:             quote.Listing.Status,
		DurationDays:       quote.Listing.DurationDays,
		HighlightDays:      quote.Listing.HighlightDays,
		DurationPriceCents: quote.DurationPriceCents,
		HighlightCents:     quote.HighlightCents,
		TotalCents:         quote.TotalCents,
	})
}

func (h *ListingsHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	identity, listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req dto.ListingPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	status, err := h.service.ConfirmPayment(r.Context(), identity.UserID, listingID, listingsvc.PaymentResult{
		Provider:  req.Provider,
		Reference: req.Reference,
		Succeeded: req.Succeeded,
	})
	if err != nil {
		h.writeListingError(w, err, "failed to confirm listing payment")
		return
	}

	httperrors.Write(w, http.StatusOK, mapListingStatus(status))
}

func (h *ListingsHandler) Renew(w http.ResponseWriter, r *http.Request) {
	identity, listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req dto.ListingRenewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	status, err := h.service.Renew(r.Context(), identity.UserID, listingID, req.RenewHighlight, listingsvc.PaymentResult{
		Provider:  req.Payment.Provider,
		Reference: req.Payment.Reference,
		Succeeded: req.Payment.Succeeded,
	})
	if err != nil {
		h.writeListingError(w, err, "failed to renew listing")
		return
	}

	httperrors.Write(w, http.StatusOK, mapListingStatus(status))
}

func (h *ListingsHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(r.Context(), listingID)
	if err != nil {
		h.writeListingError(w, err, "failed to load listing")
		return
	}

	httperrors.Write(w, http.StatusOK, mapListingStatus(status))
}

// MarkInterested is deliberately open to any authenticated viewer; interest
// comes from the audience, not the owner.
func (h *ListingsHandler) MarkInterested(w http.ResponseWriter, r *http.Request) {
	_, listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}

	interested, err := h.service.MarkInterested(r.Context(), listingID)
	if err != nil {
		h.writeListingError(w, err, "failed to record interest")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ListingInterestedResponse{
		OK:         true,
		Interested: interested,
	})
}

func (h *ListingsHandler) listingID(w http.ResponseWriter, r *http.Request) (authsvc.Identity, int64, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, 0, false
	}
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return authsvc.Identity{}, 0, false
	}

	raw := chi.URLParam(r, "listingID")
	listingID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || listingID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid listing id")
		return authsvc.Identity{}, 0, false
	}

	return identity, listingID, true
}

func (h *ListingsHandler) writeListingError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, listingsvc.ErrListingNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "LISTING_NOT_FOUND",
			Message: "listing not found",
		})
	case errors.Is(err, listingsvc.ErrNotOwner):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "FORBIDDEN",
			Message: "only the listing owner can do this",
		})
	case errors.Is(err, listingsvc.ErrPaymentNotConfirmed):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "PAYMENT_NOT_CONFIRMED",
			Message: "payment was not confirmed",
		})
	case errors.Is(err, listingsvc.ErrNotActivated):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "LISTING_NOT_ACTIVATED",
			Message: "listing was never activated",
		})
	case errors.Is(err, listingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid listing request")
	default:
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}

func mapListingStatus(status listingsvc.Status) dto.ListingStatusResponse {
	return dto.ListingStatusResponse{
		ListingID:             status.Listing.ID,
		Title:                 status.Listing.Title,
		State:                 string(status.State),
		Active:                status.Active,
		Highlighted:           status.Highlighted,
		Interested:            status.Listing.Interested,
		ActiveRemainingSec:    int64(status.ActiveRemaining.Seconds()),
		HighlightRemainingSec: int64(status.HighlightRemaining.Seconds()),
		CreatedAt:             status.Listing.CreatedAt.UTC(),
	}
}
