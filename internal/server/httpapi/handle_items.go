package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type challengeResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

func handleGetChallenge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := challengeFrom(r)
		writeJSON(w, http.StatusOK, challengeResponse{
			ID:        c.ID,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

func handleListItems(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := tracker.LoadItems(r.Context(), challengeFrom(r).ID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemDTOs(items))
	}
}

func handleAddGame(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SearchResult
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.ExternalID = strings.TrimSpace(req.ExternalID)
		req.Name = strings.TrimSpace(req.Name)
		if req.ExternalID == "" {
			writeServiceError(w, r, log, &common.ValidationError{Field: "external_id", Reason: "is required"})
			return
		}

		item, err := tracker.AddGame(r.Context(), challengeFrom(r).ID, req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemDTO(item))
	}
}

func handleRemoveGame(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := pathID(r, "gameID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		err = tracker.RemoveGame(r.Context(), userIDFrom(r), challengeFrom(r).ID, gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetGame(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := pathID(r, "gameID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		g, err := tracker.GetGame(r.Context(), gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toGameDTO(g))
	}
}

func handleSearch(tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := tracker.Search(r.Context(), r.URL.Query().Get("q"))
		if results == nil {
			results = []models.SearchResult{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}
