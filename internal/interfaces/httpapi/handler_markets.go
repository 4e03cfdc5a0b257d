package httpapi

import (
	"net/http"

	"github.com/matchpulse/match-sync/internal/domain/markets"
)

type matchMarketsDTO struct {
	MatchID   string         `json:"matchId"`
	Available bool           `json:"available"`
	Markets   *markets.Table `json:"markets,omitempty"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	status := r.URL.Query().Get("status")
	rows, err := h.marketsService.ListMatches(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(rows))
	for _, m := range rows {
		items = append(items, matchToDTO(m))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	m, err := h.marketsService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

func (h *Handler) GetMatchMarkets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchMarkets")
	defer span.End()

	matchID := r.PathValue("matchID")
	m, table, err := h.marketsService.MarketsForMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match markets failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchMarketsDTO{
		MatchID:   m.ID,
		Available: table != nil,
		Markets:   table,
	})
}

func (h *Handler) GetMatchParlays(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchParlays")
	defer span.End()

	matchID := r.PathValue("matchID")
	candidates, err := h.marketsService.ParlaysForMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match parlays failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, candidates)
}

func (h *Handler) GetParlayBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetParlayBoard")
	defer span.End()

	board, err := h.marketsService.ParlayBoard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get parlay board failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, board)
}
