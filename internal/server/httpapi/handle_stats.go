package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/stats"
)

const (
	defaultRecent = 5
	maxRecent     = 100
)

type statsResponse struct {
	KPIs  stats.KPIs        `json:"kpis"`
	Level stats.LevelStatus `json:"level"`
}

func handleStats(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plays, err := tracker.GetAllPlays(r.Context(), userIDFrom(r))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		kpis := stats.ComputeKPIs(plays)
		writeJSON(w, http.StatusOK, statsResponse{
			KPIs:  kpis,
			Level: stats.ComputeLevel(kpis.TotalPlays),
		})
	}
}

func handleMonthly(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plays, err := tracker.GetAllPlays(r.Context(), userIDFrom(r))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		series := stats.ComputeMonthlySeries(plays)
		if series == nil {
			series = []stats.MonthPoint{}
		}
		writeJSON(w, http.StatusOK, series)
	}
}

func handleRecent(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := defaultRecent
		if v := r.URL.Query().Get("n"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
				return
			}
			n = min(parsed, maxRecent)
		}

		plays, err := tracker.GetAllPlays(r.Context(), userIDFrom(r))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayDTOs(stats.ComputeRecentHistory(plays, n)))
	}
}

type gameSummaryResponse struct {
	Item    itemDTO           `json:"item"`
	Summary stats.GameSummary `json:"summary"`
}

func handleGameSummary(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := pathID(r, "gameID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		item, err := tracker.GetItem(r.Context(), challengeFrom(r).ID, gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		history, err := tracker.GetHistory(r.Context(), userIDFrom(r), gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, gameSummaryResponse{
			Item:    toItemDTO(item),
			Summary: stats.ComputeGameSummary(item, history),
		})
	}
}
