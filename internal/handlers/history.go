package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tubegrab/backend/internal/logging"
)

// HistoryHandler serves the per-user download history.
type HistoryHandler struct {
	History  HistoryStore
	Sessions SessionManager
}

type historyResponse struct {
	Entries []historyRecordPayload `json:"entries"`
}

type deleteHistoryRequest struct {
	ID string `json:"id"`
}

// List handles GET /api/v1/history. Unauthenticated callers and failed
// reads both yield an empty list; the history surface degrades instead of
// failing.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	respondJSON(ctx, w, http.StatusOK, historyResponse{Entries: h.entriesFor(ctx, identify(ctx, h.Sessions, r))})
}

// Delete handles POST /api/v1/history/delete. Deleting a missing or
// foreign record is a no-op; the response always carries the caller's
// current history.
func (h HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req deleteHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid history delete payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		logger.Warn("history delete missing id")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "record id is required"})
		return
	}

	identity := identify(ctx, h.Sessions, r)
	if identity != "" && h.History != nil {
		if err := h.History.Delete(ctx, identity, req.ID); err != nil {
			logger.Error("delete history record", "recordId", req.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, historyResponse{Entries: h.entriesFor(ctx, identity)})
}

// Clear handles POST /api/v1/history/clear, removing every record owned
// by the caller. A call without identity is a no-op.
func (h HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity := identify(ctx, h.Sessions, r)
	if identity != "" && h.History != nil {
		if err := h.History.ClearForOwner(ctx, identity); err != nil {
			logger.Error("clear download history", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h HistoryHandler) entriesFor(ctx context.Context, identity string) []historyRecordPayload {
	entries := []historyRecordPayload{}
	if identity == "" || h.History == nil {
		return entries
	}

	records, err := h.History.ListForOwner(ctx, identity)
	if err != nil {
		logging.FromContext(ctx).Error("list download history", "error", err)
		return entries
	}

	for _, record := range records {
		entries = append(entries, recordPayload(record))
	}
	return entries
}
