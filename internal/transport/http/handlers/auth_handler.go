package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	authsvc "github.com/botalove/backend/internal/services/auth"
	"github.com/botalove/backend/internal/transport/http/dto"
	httperrors "github.com/botalove/backend/internal/transport/http/errors"
)

// AuthHandler mints development access tokens. The endpoint is wired only
// outside prod; real token issuance lives with the identity provider.
type AuthHandler struct {
	tokens *authsvc.JWTManager
	env    string
}

func NewAuthHandler(tokens *authsvc.JWTManager, env string) *AuthHandler {
	return &AuthHandler{tokens: tokens, env: env}
}

func (h *AuthHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	if h.env == "prod" {
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "FORBIDDEN",
			Message: "dev tokens are disabled in this environment",
		})
		return
	}
	if h.tokens == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.DevTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.UserID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id is required")
		return
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = "user"
	}

	token, expiresAt, err := h.tokens.GenerateAccessToken(req.UserID, role)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to issue token")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DevTokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC(),
	})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func timezoneFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Header.Get("X-Timezone")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("tz")); v != "" {
		return v
	}
	return ""
}
