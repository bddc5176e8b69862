package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/auth"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyChallenge
)

func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get(common.AccessTokenHeaderName), common.BearerPrefix)
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				msg := "not authenticated"
				if errors.Is(err, common.ErrTokenExpired) {
					msg = "session expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// challengeMiddleware loads the caller's challenge. A user without one has
// not been provisioned, which is reported as 404.
func challengeMiddleware(log logging.Logger, tracker Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := tracker.LoadChallenge(r.Context(), userIDFrom(r))
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					writeError(w, http.StatusNotFound, "challenge not found")
					return
				}
				writeServiceError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyChallenge, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyUserID).(string)
}

func challengeFrom(r *http.Request) *models.Challenge {
	return r.Context().Value(ctxKeyChallenge).(*models.Challenge)
}

// pathID returns the named URL parameter. Ids are UUIDs; anything else
// cannot match a stored row and is reported as common.ErrorNotFound.
func pathID(r *http.Request, name string) (string, error) {
	return parseID(chi.URLParam(r, name))
}

func parseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", common.ErrorNotFound
	}
	return id.String(), nil
}
