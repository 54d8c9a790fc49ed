package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	authsvc "github.com/botalove/backend/internal/services/auth"
	matchingsvc "github.com/botalove/backend/internal/services/matching"
	ratesvc "github.com/botalove/backend/internal/services/rate"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

type TierResolver interface {
	GetTier(ctx context.Context, actorID int64, at time.Time) (enums.PlanTier, error)
}

type SwipeHandler struct {
	service *matchingsvc.Service
	limiter *ratesvc.Limiter
	plans   TierResolver
}

func NewSwipeHandler(service *matchingsvc.Service, limiter *ratesvc.Limiter, plans TierResolver) *SwipeHandler {
	return &SwipeHandler{service: service, limiter: limiter, plans: plans}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.Kind) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and kind are required")
		return
	}

	// The velocity window guards tiers that bypass the daily ledger; metered
	// tiers are already bounded by their quota. Passes are free and skip it.
	if h.limiter != nil && !strings.EqualFold(strings.TrimSpace(req.Kind), "pass") {
		unmetered := true
		if h.plans != nil {
			tier, err := h.plans.GetTier(r.Context(), identity.UserID, time.Now().UTC())
			if err != nil {
				writeInternal(w, "INTERNAL_ERROR", "failed to resolve plan tier")
				return
			}
			unmetered = rules.IsUnlimitedTier(tier)
		}

		if unmetered {
			retryAfter, allowed, err := h.limiter.AllowLike(r.Context(), identity.UserID)
			if err != nil {
				writeInternal(w, "INTERNAL_ERROR", "failed to check rate limit")
				return
			}
			if !allowed {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many swipe actions, slow down",
					RetryAfterSec: retryAfter,
				})
				return
			}
		}
	}

	result, err := h.service.RecordDecision(r.Context(), identity.UserID, req.TargetID, req.Kind, timezoneFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, matchingsvc.ErrUnsupportedKind):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported decision kind")
		case errors.Is(err, matchingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
		}
		return
	}

	if !result.Charge.Granted {
		httperrors.Write(w, http.StatusPaymentRequired, dto.SwipeResponse{
			OK:     false,
			Charge: mapCharge(result.Charge),
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		OK:      true,
		IsMatch: result.IsMatch,
		MatchID: result.MatchID,
		ChatID:  result.ChatID,
		Charge:  mapCharge(result.Charge),
	})
}
