package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// multipartMemory is how much of a play form is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

func handleHistory(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := pathID(r, "gameID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		plays, err := tracker.GetHistory(r.Context(), userIDFrom(r), gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayDTOs(plays))
	}
}

func handleAllPlays(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plays, err := tracker.GetAllPlays(r.Context(), userIDFrom(r))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayDTOs(plays))
	}
}

func handleLogPlay(log logging.Logger, tracker Tracker, maxImageBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := pathID(r, "gameID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		in, err := parsePlayForm(r, maxImageBytes)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		p, err := tracker.LogPlay(r.Context(), userIDFrom(r), challengeFrom(r).ID, gameID, in)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlayDTO(p))
	}
}

func handleUpdatePlay(log logging.Logger, tracker Tracker, maxImageBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playID, err := pathID(r, "playID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		in, err := parsePlayForm(r, maxImageBytes)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		p, err := tracker.UpdatePlay(r.Context(), userIDFrom(r), challengeFrom(r).ID, playID, in)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayDTO(p))
	}
}

func handleDeletePlay(log logging.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawGameID := r.URL.Query().Get("game_id")
		if rawGameID == "" {
			writeServiceError(w, r, log, &common.ValidationError{Field: "game_id", Reason: "is required"})
			return
		}
		playID, err := pathID(r, "playID")
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		gameID, err := parseID(rawGameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		err = tracker.DeletePlay(r.Context(), userIDFrom(r), challengeFrom(r).ID, playID, gameID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// parsePlayForm reads a multipart play form. Field-level checks beyond
// parsing are left to PlayInput.Validate in the service.
func parsePlayForm(r *http.Request, maxImageBytes int64) (models.PlayInput, error) {
	var in models.PlayInput

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return in, &common.ValidationError{Field: "form", Reason: err.Error()}
	}

	if v := strings.TrimSpace(r.FormValue("played_on")); v != "" {
		d, err := time.Parse(models.DateLayout, v)
		if err != nil {
			return in, &common.ValidationError{Field: "played_on", Reason: "expected YYYY-MM-DD"}
		}
		in.PlayedOn = d
	}

	var err error
	if in.Hours, err = formInt(r, "hours"); err != nil {
		return in, err
	}
	if in.Minutes, err = formInt(r, "minutes"); err != nil {
		return in, err
	}

	switch strings.ToLower(strings.TrimSpace(r.FormValue("is_victory"))) {
	case "1", "true", "on", "yes":
		in.IsVictory = true
	}
	in.Notes = strings.TrimSpace(r.FormValue("notes"))

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			img, err := readImage(fh, maxImageBytes)
			if err != nil {
				return in, err
			}
			in.Images = append(in.Images, img)
		}
	}
	return in, nil
}

func formInt(r *http.Request, field string) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &common.ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return n, nil
}

// readImage reads at most maxImageBytes+1 bytes so oversize files are
// still reported by name without buffering them whole.
func readImage(fh *multipart.FileHeader, maxImageBytes int64) (models.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	var src io.Reader = f
	if maxImageBytes > 0 {
		src = io.LimitReader(f, maxImageBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	return models.ImageFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
