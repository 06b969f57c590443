package stats

import (
	"context"
	"net/http"
	"time"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/dto"
	"github.com/GlebRadaev/courierstats/internal/report"
	"github.com/GlebRadaev/courierstats/pkg/utils"
)

//go:generate mockgen -source=stats.go -destination=mock_stats.go -package=stats

type Service interface {
	Leaderboard(ctx context.Context) (time.Time, []domain.LeaderboardEntry, error)
	Format(entries []domain.LeaderboardEntry, mode report.Mode) string
}

type StatsHandler struct {
	statsService Service
}

func New(statsService Service) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStats answers GET /api/stats?mode=query|report with the current week's
// leaderboard and its rendered text.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	mode, ok := report.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown mode")
		return
	}

	weekStart, entries, err := h.statsService.Leaderboard(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := dto.StatsResponseDTO{
		WeekStart: weekStart,
		Entries:   make([]dto.LeaderboardEntryDTO, len(entries)),
		Text:      h.statsService.Format(entries, mode),
	}
	for i, e := range entries {
		response.Entries[i] = dto.LeaderboardEntryDTO{
			Rank:        i + 1,
			CourierID:   e.CourierID,
			Handle:      e.Handle.String,
			DisplayName: report.DisplayName(e),
			Total:       e.Total,
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}
