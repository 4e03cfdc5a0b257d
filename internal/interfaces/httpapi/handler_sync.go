package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/matchpulse/match-sync/internal/usecase"
)

// The sync endpoints answer in a flat shape rather than the versioned
// envelope: cron schedulers and ops tooling key off the top-level success
// flag.
type syncResponse struct {
	Success bool                            `json:"success"`
	Results map[string]usecase.StatusResult `json:"results,omitempty"`
	Summary *syncSummaryBody                `json:"summary,omitempty"`
	Error   string                          `json:"error,omitempty"`
}

type syncSummaryBody struct {
	Synced     int   `json:"synced"`
	Errors     int   `json:"errors"`
	Skipped    int   `json:"skipped"`
	DurationMs int64 `json:"durationMs"`
}

type manualSyncRequest struct {
	Type  string `json:"type" validate:"omitempty,oneof=live upcoming completed all"`
	Force bool   `json:"force"`
}

// RunScheduledSync handles GET /sync. The route is guarded by the cron
// secret; the type query parameter accepts a comma-separated list.
func (h *Handler) RunScheduledSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScheduledSync")
	defer span.End()

	types := splitSyncTypes(r.URL.Query().Get("type"))
	h.runSync(ctx, w, types, false)
}

// RunManualSync handles POST /sync-manual. It requires an authenticated
// admin and honors the force flag, which bypasses the freshness gate.
func (h *Handler) RunManualSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunManualSync")
	defer span.End()

	operator, ok := operatorFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: authentication required", usecase.ErrUnauthorized))
		return
	}
	if !operator.IsAdmin() {
		writeError(ctx, w, fmt.Errorf("%w: manual sync requires the admin role", usecase.ErrForbidden))
		return
	}

	var req manualSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	h.logger.InfoContext(ctx, "manual sync requested",
		"user_id", operator.UserID,
		"type", req.Type,
		"force", req.Force,
	)
	h.runSync(ctx, w, splitSyncTypes(req.Type), req.Force)
}

func (h *Handler) runSync(ctx context.Context, w http.ResponseWriter, types []string, force bool) {
	summary, err := h.syncService.Run(ctx, types, force)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, usecase.ErrDependencyUnavailable):
			status = http.StatusServiceUnavailable
		default:
			h.logger.ErrorContext(ctx, "sync run failed", "error", err)
		}
		writeJSON(ctx, w, status, syncResponse{Success: false, Error: err.Error()})
		return
	}

	h.marketsService.InvalidateBoard(ctx)

	writeJSON(ctx, w, http.StatusOK, syncResponse{
		Success: summary.Errors == 0,
		Results: summary.Results,
		Summary: &syncSummaryBody{
			Synced:     summary.Synced,
			Errors:     summary.Errors,
			Skipped:    summary.Skipped,
			DurationMs: summary.DurationMs,
		},
	})
}

func splitSyncTypes(raw string) []string {
	out := make([]string, 0, 3)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
