package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tubegrab/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// bearerToken extracts the access token from the Authorization header.
// Missing or malformed headers yield an empty token.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// identify resolves the caller's identity from the request's bearer token.
// Absent or unresolvable tokens yield an empty identity; the caller decides
// whether that is a hard gate or a degrade-to-empty case.
func identify(ctx context.Context, sessions SessionManager, r *http.Request) string {
	if sessions == nil {
		return ""
	}
	token := bearerToken(r)
	if token == "" {
		return ""
	}
	identity, err := sessions.Identify(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("identify session", "error", err)
		return ""
	}
	return identity
}
