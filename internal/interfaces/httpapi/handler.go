// Package httpapi is the HTTP surface: read endpoints for stored matches
// and derived markets, plus the cron- and operator-facing sync triggers.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/usecase"
)

type Handler struct {
	syncService    *usecase.SyncService
	marketsService *usecase.MarketsService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	syncService *usecase.SyncService,
	marketsService *usecase.MarketsService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		syncService:    syncService,
		marketsService: marketsService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchDTO struct {
	ID         string `json:"matchId"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	League     string `json:"league"`
	HomeLogo   string `json:"homeLogo,omitempty"`
	AwayLogo   string `json:"awayLogo,omitempty"`
	LeagueFlag string `json:"leagueFlag,omitempty"`

	Status    string    `json:"status"`
	KickoffAt time.Time `json:"kickoffAt"`

	Odds       *match.Odds           `json:"odds,omitempty"`
	Bookmakers map[string]match.Odds `json:"bookmakers,omitempty"`
	BookCount  int                   `json:"bookCount,omitempty"`

	V1Model *match.ModelPick `json:"v1Model,omitempty"`
	V2Model *match.ModelPick `json:"v2Model,omitempty"`

	Live  *match.LiveState   `json:"live,omitempty"`
	Final *match.FinalResult `json:"final,omitempty"`

	Statistics map[string]any `json:"statistics,omitempty"`
	Venue      string         `json:"venue,omitempty"`
	Referee    string         `json:"referee,omitempty"`
	Attendance int            `json:"attendance,omitempty"`

	LastSyncedAt time.Time  `json:"lastSyncedAt"`
	NextSyncAt   *time.Time `json:"nextSyncAt,omitempty"`
	Priority     string     `json:"priority"`
	ErrorCount   int        `json:"errorCount,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ID:           m.ID,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		League:       m.League,
		HomeLogo:     m.HomeLogo,
		AwayLogo:     m.AwayLogo,
		LeagueFlag:   m.LeagueFlag,
		Status:       m.Status,
		KickoffAt:    m.KickoffAt,
		Odds:         m.Odds,
		Bookmakers:   m.Bookmakers,
		BookCount:    m.BookCount,
		V1Model:      m.V1Model,
		V2Model:      m.V2Model,
		Live:         m.Live,
		Final:        m.Final,
		Statistics:   m.Statistics,
		Venue:        m.Venue,
		Referee:      m.Referee,
		Attendance:   m.Attendance,
		LastSyncedAt: m.Sync.LastSyncedAt,
		NextSyncAt:   m.Sync.NextSyncAt,
		Priority:     string(m.Sync.Priority),
		ErrorCount:   m.Sync.ErrorCount,
		LastError:    m.Sync.LastError,
	}
}
