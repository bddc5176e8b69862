package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/config"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/games"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/items"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/plays"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/repomanager"
)

// -------- in-memory store --------

type memStore struct {
	mu         sync.Mutex
	games      map[string]*models.Game
	challenges map[string]*models.Challenge
	items      []*models.ChallengeItem
	plays      []*models.Play
	seq        int

	setProgressErr error
	insertPlayErr  error
}

func newMemStore() *memStore {
	return &memStore{
		games: map[string]*models.Game{},
		challenges: map[string]*models.Challenge{
			"u1": {ID: "c1", UserID: "u1"},
			"u2": {ID: "c2", UserID: "u2"},
		},
	}
}

func (s *memStore) tick() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, s.seq, 0, time.UTC)
}

func (s *memStore) item(challengeID, gameID string) *models.ChallengeItem {
	for _, it := range s.items {
		if it.ChallengeID == challengeID && it.GameID == gameID {
			return it
		}
	}
	return nil
}

type fakeGames struct{ s *memStore }

func (f fakeGames) Upsert(_ context.Context, g *models.Game) (*models.Game, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.games {
		if existing.ExternalID == g.ExternalID {
			existing.Name = g.Name
			c := *existing
			return &c, nil
		}
	}
	c := *g
	c.ID = "g-" + g.ExternalID
	f.s.games[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeGames) GetByID(_ context.Context, id string) (*models.Game, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.games[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

func (f fakeGames) GetByExternalID(_ context.Context, externalID string) (*models.Game, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, g := range f.s.games {
		if g.ExternalID == externalID {
			c := *g
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeChallenges struct{ s *memStore }

func (f fakeChallenges) GetByUserID(_ context.Context, userID string) (*models.Challenge, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.challenges[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

type fakeItems struct{ s *memStore }

func (f fakeItems) joined(it *models.ChallengeItem) *models.ChallengeItem {
	c := *it
	if g, ok := f.s.games[it.GameID]; ok {
		gc := *g
		c.Game = &gc
	}
	return &c
}

func (f fakeItems) ListByChallenge(_ context.Context, challengeID string) ([]*models.ChallengeItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]*models.ChallengeItem, 0)
	for _, it := range f.s.items {
		if it.ChallengeID == challengeID {
			out = append(out, f.joined(it))
		}
	}
	return out, nil
}

func (f fakeItems) Get(_ context.Context, challengeID, gameID string) (*models.ChallengeItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	it := f.s.item(challengeID, gameID)
	if it == nil {
		return nil, common.ErrorNotFound
	}
	return f.joined(it), nil
}

func (f fakeItems) Count(_ context.Context, challengeID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, it := range f.s.items {
		if it.ChallengeID == challengeID {
			n++
		}
	}
	return n, nil
}

func (f fakeItems) Insert(_ context.Context, item *models.ChallengeItem) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.item(item.ChallengeID, item.GameID) != nil {
		return common.ErrDuplicateItem
	}
	item.CreatedAt = f.s.tick()
	c := *item
	c.Game = nil
	f.s.items = append(f.s.items, &c)
	return nil
}

func (f fakeItems) Delete(_ context.Context, challengeID, gameID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i, it := range f.s.items {
		if it.ChallengeID == challengeID && it.GameID == gameID {
			f.s.items = slices.Delete(f.s.items, i, i+1)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f fakeItems) SetProgress(_ context.Context, challengeID, gameID string, progress int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.setProgressErr != nil {
		return f.s.setProgressErr
	}
	it := f.s.item(challengeID, gameID)
	if it == nil {
		return common.ErrorNotFound
	}
	it.Progress = progress
	return nil
}

func (f fakeItems) RecomputeAllProgress(_ context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var changed int64
	for _, it := range f.s.items {
		var owner string
		for _, c := range f.s.challenges {
			if c.ID == it.ChallengeID {
				owner = c.UserID
			}
		}
		n := 0
		for _, p := range f.s.plays {
			if p.UserID == owner && p.GameID == it.GameID {
				n++
			}
		}
		if it.Progress != n {
			it.Progress = n
			changed++
		}
	}
	return changed, nil
}

type fakePlays struct{ s *memStore }

func clonePlay(p *models.Play) *models.Play {
	c := *p
	c.ImageURLs = slices.Clone(p.ImageURLs)
	return &c
}

func (f fakePlays) Insert(_ context.Context, p *models.Play) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.insertPlayErr != nil {
		return f.s.insertPlayErr
	}
	p.CreatedAt = f.s.tick()
	f.s.plays = append(f.s.plays, clonePlay(p))
	return nil
}

func (f fakePlays) Update(_ context.Context, p *models.Play) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i, existing := range f.s.plays {
		if existing.ID == p.ID && existing.UserID == p.UserID {
			f.s.plays[i] = clonePlay(p)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f fakePlays) Get(_ context.Context, userID, playID string) (*models.Play, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.plays {
		if p.ID == playID && p.UserID == userID {
			return clonePlay(p), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakePlays) Delete(_ context.Context, userID, playID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i, p := range f.s.plays {
		if p.ID == playID && p.UserID == userID {
			f.s.plays = slices.Delete(f.s.plays, i, i+1)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f fakePlays) DeleteByGame(_ context.Context, userID, gameID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	before := len(f.s.plays)
	f.s.plays = slices.DeleteFunc(f.s.plays, func(p *models.Play) bool {
		return p.UserID == userID && p.GameID == gameID
	})
	return int64(before - len(f.s.plays)), nil
}

func (f fakePlays) filter(userID, gameID string) []*models.Play {
	out := make([]*models.Play, 0)
	for _, p := range f.s.plays {
		if p.UserID == userID && (gameID == "" || p.GameID == gameID) {
			out = append(out, clonePlay(p))
		}
	}
	return out
}

func (f fakePlays) ListByGame(_ context.Context, userID, gameID string) ([]*models.Play, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := f.filter(userID, gameID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedOn.After(out[j].PlayedOn) })
	return out, nil
}

func (f fakePlays) ListByUser(_ context.Context, userID string) ([]*models.Play, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := f.filter(userID, "")
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedOn.Before(out[j].PlayedOn) })
	return out, nil
}

func (f fakePlays) CountByGame(_ context.Context, userID, gameID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.filter(userID, gameID)), nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	s *memStore
}

func (m *fakeRepoManager) Games(dbx.DBTX) games.Repository           { return fakeGames{m.s} }
func (m *fakeRepoManager) Challenges(dbx.DBTX) challenges.Repository { return fakeChallenges{m.s} }
func (m *fakeRepoManager) Items(dbx.DBTX) items.Repository           { return fakeItems{m.s} }
func (m *fakeRepoManager) Plays(dbx.DBTX) plays.Repository           { return fakePlays{m.s} }

// -------- blob store and lookup fakes --------

const blobBase = "https://blobs.test/"

type fakeBlobs struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	failOn  string
}

func (b *fakeBlobs) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn != "" && strings.HasSuffix(key, b.failOn) {
		return "", errors.New("upload refused")
	}
	b.puts = append(b.puts, key)
	return blobBase + key, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	return nil
}

func (b *fakeBlobs) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, blobBase)
}

type fakeLookup struct {
	details map[string]*models.GameDetails
	err     error
	calls   int
}

func (l *fakeLookup) Search(_ context.Context, q string) []models.SearchResult {
	return []models.SearchResult{{ExternalID: "13", Name: q}}
}

func (l *fakeLookup) GetDetails(_ context.Context, id string) (*models.GameDetails, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.details[id], nil
}

// -------- helpers --------

type fixture struct {
	svc    *TrackerService
	store  *memStore
	blobs  *fakeBlobs
	lookup *fakeLookup
	mock   sqlmock.Sqlmock
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rating := 7.1
	lk := &fakeLookup{details: map[string]*models.GameDetails{
		"13":  {ExternalID: "13", Name: "Catan", Rating: &rating, ThumbnailURL: "https://img/13.jpg"},
		"822": {ExternalID: "822", Name: "Carcassonne"},
	}}

	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	cfg := &config.Config{MaxImageBytes: 1024}
	store := newMemStore()
	blobs := &fakeBlobs{}
	svc := NewTrackerService(db, &fakeRepoManager{s: store}, blobs, lk, cfg, log)

	return &fixture{svc: svc, store: store, blobs: blobs, lookup: lk, mock: mock, logs: &buf}
}

// expectTx queues n committed transactions.
func (f *fixture) expectTx(n int) {
	for i := 0; i < n; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

// addGame tracks external id ext for user u1 (challenge c1).
func (f *fixture) addGame(t *testing.T, ext string) *models.ChallengeItem {
	t.Helper()
	f.expectTx(1)
	item, err := f.svc.AddGame(context.Background(), "c1", models.SearchResult{ExternalID: ext, Name: "name-" + ext})
	if err != nil {
		t.Fatalf("AddGame(%s): %v", ext, err)
	}
	return item
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func jpeg(name string) models.ImageFile {
	return models.ImageFile{Name: name, ContentType: "image/jpeg", Data: []byte(fmt.Sprintf("data-%s", name))}
}
