package httpapi

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/auth"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

var testSecret = []byte("test-secret")

const (
	gameOne     = "6f1c2d3e-0a4b-4c5d-8e9f-101112131415"
	gameTwo     = "6f1c2d3e-0a4b-4c5d-8e9f-202122232425"
	gameMissing = "6f1c2d3e-0a4b-4c5d-8e9f-ffffffffffff"
	playOne     = "9a8b7c6d-5e4f-4a3b-9c2d-010203040506"
	playSeven   = "9a8b7c6d-5e4f-4a3b-9c2d-070707070707"
)

type fakeTracker struct {
	challenges map[string]*models.Challenge
	items      []*models.ChallengeItem
	plays      []*models.Play

	addErr    error
	removeErr error
	logErr    error
	deleteErr error

	added     models.SearchResult
	logged    models.PlayInput
	loggedFor string
	updatedID string
	deleted   [2]string
	searched  string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		challenges: map[string]*models.Challenge{
			"u1": {ID: "c1", UserID: "u1", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func (f *fakeTracker) LoadChallenge(_ context.Context, userID string) (*models.Challenge, error) {
	c, ok := f.challenges[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeTracker) LoadItems(context.Context, string) ([]*models.ChallengeItem, error) {
	return f.items, nil
}

func (f *fakeTracker) GetItem(_ context.Context, _ string, gameID string) (*models.ChallengeItem, error) {
	for _, it := range f.items {
		if it.GameID == gameID {
			return it, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTracker) GetGame(_ context.Context, gameID string) (*models.Game, error) {
	for _, it := range f.items {
		if it.GameID == gameID && it.Game != nil {
			return it.Game, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTracker) AddGame(_ context.Context, challengeID string, r models.SearchResult) (*models.ChallengeItem, error) {
	f.added = r
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.ChallengeItem{
		ChallengeID: challengeID, GameID: "g-" + r.ExternalID, Target: models.DefaultTarget, MeepleColor: "red",
		Game: &models.Game{ID: "g-" + r.ExternalID, ExternalID: r.ExternalID, Name: r.Name},
	}, nil
}

func (f *fakeTracker) RemoveGame(context.Context, string, string, string) error {
	return f.removeErr
}

func (f *fakeTracker) LogPlay(_ context.Context, userID, _, gameID string, in models.PlayInput) (*models.Play, error) {
	f.logged = in
	f.loggedFor = gameID
	if f.logErr != nil {
		return nil, f.logErr
	}
	if err := in.Validate(1024, 0); err != nil {
		return nil, err
	}
	return &models.Play{
		ID: playOne, UserID: userID, GameID: gameID, PlayedOn: in.PlayedOn,
		DurationMinutes: in.Duration(), IsVictory: in.IsVictory, Notes: in.Notes,
	}, nil
}

func (f *fakeTracker) UpdatePlay(_ context.Context, userID, _, playID string, in models.PlayInput) (*models.Play, error) {
	f.updatedID = playID
	f.logged = in
	return &models.Play{ID: playID, UserID: userID, GameID: gameOne, PlayedOn: in.PlayedOn, Notes: in.Notes}, nil
}

func (f *fakeTracker) DeletePlay(_ context.Context, _, _, playID, gameID string) error {
	f.deleted = [2]string{playID, gameID}
	return f.deleteErr
}

func (f *fakeTracker) GetHistory(_ context.Context, _ string, gameID string) ([]*models.Play, error) {
	var out []*models.Play
	for _, p := range f.plays {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeTracker) GetAllPlays(context.Context, string) ([]*models.Play, error) {
	return f.plays, nil
}

func (f *fakeTracker) Search(_ context.Context, q string) []models.SearchResult {
	f.searched = q
	if len(q) < 3 {
		return nil
	}
	return []models.SearchResult{{ExternalID: "13", Name: "Catan"}}
}

func testLogger(buf *bytes.Buffer) logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(buf, nil)))
}

func newTestRouter(t *testing.T, tracker Tracker, checks map[string]HealthCheck) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts := Options{SecretKey: testSecret, MaxImageBytes: 1024, HealthChecks: checks}
	return NewRouter(opts, testLogger(&buf), tracker), &buf
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return common.BearerPrefix + tok
}

func do(t *testing.T, h http.Handler, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	if userID != "" {
		req.Header.Set(common.AccessTokenHeaderName, bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="images"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func date(s string) time.Time {
	d, _ := time.Parse(models.DateLayout, s)
	return d
}

func intPtr(v int) *int { return &v }
