// Package httpapi exposes the tracker over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// Tracker is the service surface the handlers need; *services.TrackerService
// implements it.
type Tracker interface {
	LoadChallenge(ctx context.Context, userID string) (*models.Challenge, error)
	LoadItems(ctx context.Context, challengeID string) ([]*models.ChallengeItem, error)
	GetItem(ctx context.Context, challengeID, gameID string) (*models.ChallengeItem, error)
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	AddGame(ctx context.Context, challengeID string, result models.SearchResult) (*models.ChallengeItem, error)
	RemoveGame(ctx context.Context, userID, challengeID, gameID string) error
	LogPlay(ctx context.Context, userID, challengeID, gameID string, in models.PlayInput) (*models.Play, error)
	UpdatePlay(ctx context.Context, userID, challengeID, playID string, in models.PlayInput) (*models.Play, error)
	DeletePlay(ctx context.Context, userID, challengeID, playID, gameID string) error
	GetHistory(ctx context.Context, userID, gameID string) ([]*models.Play, error)
	GetAllPlays(ctx context.Context, userID string) ([]*models.Play, error)
	Search(ctx context.Context, query string) []models.SearchResult
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Addr          string
	SecretKey     []byte
	MaxImageBytes int64
	HealthChecks  map[string]HealthCheck
}

type Server struct {
	srv *http.Server
	log logging.Logger
}

func New(opts Options, log logging.Logger, tracker Tracker) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(opts, log, tracker),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
}

// NewRouter builds the full handler tree.
func NewRouter(opts Options, log logging.Logger, tracker Tracker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(log))
	r.Use(middleware.Recoverer)

	addRoutes(r, opts, log, tracker)
	return r
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.log.Info(ctx, "http server listening", "addr", ln.Addr().String())

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(log logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
