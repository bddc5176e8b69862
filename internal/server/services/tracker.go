// Package services implements the play tracker's use cases on top of the
// repositories, blob storage and metadata lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server/blobstore"
	sc "github.com/dmitrijs2005/playtracker/internal/server/config"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/repomanager"
)

// MetadataClient is implemented by *lookup.Client.
type MetadataClient interface {
	Search(ctx context.Context, query string) []models.SearchResult
	GetDetails(ctx context.Context, externalID string) (*models.GameDetails, error)
}

type TrackerService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	blobs         blobstore.Store
	lookup        MetadataClient
	maxImageBytes int64
	log           logging.Logger

	now   func() time.Time
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewTrackerService(db *sql.DB, repomanager repomanager.RepositoryManager, blobs blobstore.Store,
	lookup MetadataClient, config *sc.Config, log logging.Logger) *TrackerService {
	return &TrackerService{
		db:            db,
		repomanager:   repomanager,
		blobs:         blobs,
		lookup:        lookup,
		maxImageBytes: config.MaxImageBytes,
		log:           log,
		now:           time.Now,
		rnd:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// LoadChallenge returns the user's challenge. Provisioning happens elsewhere,
// so a missing row is common.ErrorNotFound.
func (s *TrackerService) LoadChallenge(ctx context.Context, userID string) (*models.Challenge, error) {
	return s.repomanager.Challenges(s.db).GetByUserID(ctx, userID)
}

// LoadItems returns the challenge's items joined with their games, oldest first.
func (s *TrackerService) LoadItems(ctx context.Context, challengeID string) ([]*models.ChallengeItem, error) {
	return s.repomanager.Items(s.db).ListByChallenge(ctx, challengeID)
}

// Search passes through to the metadata client; it never fails.
func (s *TrackerService) Search(ctx context.Context, query string) []models.SearchResult {
	return s.lookup.Search(ctx, query)
}

// AddGame fetches metadata for result, upserts the game and starts tracking
// it in the challenge with zero progress. Adding a game twice fails with
// common.ErrDuplicateItem. When metadata is unavailable the game is stored
// with the id and name from the search result only.
func (s *TrackerService) AddGame(ctx context.Context, challengeID string, result models.SearchResult) (*models.ChallengeItem, error) {
	if result.ExternalID == "" {
		return nil, &common.ValidationError{Field: "external_id", Reason: "is required"}
	}

	if err := s.checkNotTracked(ctx, challengeID, result.ExternalID); err != nil {
		return nil, err
	}

	itemRepo := s.repomanager.Items(s.db)
	n, err := itemRepo.Count(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if n >= models.MaxChallengeGames {
		return nil, &common.ValidationError{
			Field:  "games",
			Reason: fmt.Sprintf("a challenge tracks at most %d games", models.MaxChallengeGames),
		}
	}

	details, err := s.lookup.GetDetails(ctx, result.ExternalID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		s.log.Info(ctx, "adding game without metadata", "external_id", result.ExternalID)
		details = &models.GameDetails{ExternalID: result.ExternalID}
	}
	if details.Name == "" {
		details.Name = result.Name
	}
	if details.YearPublished == nil {
		details.YearPublished = result.YearPublished
	}

	var item *models.ChallengeItem
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		game, err := s.repomanager.Games(tx).Upsert(ctx, details.ToGame())
		if err != nil {
			return err
		}

		itemRepo := s.repomanager.Items(tx)
		if _, err := itemRepo.Get(ctx, challengeID, game.ID); err == nil {
			return common.ErrDuplicateItem
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		item = &models.ChallengeItem{
			ChallengeID: challengeID,
			GameID:      game.ID,
			Progress:    0,
			Target:      models.DefaultTarget,
			MeepleColor: s.pickColor(),
			Game:        game,
		}
		return itemRepo.Insert(ctx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("add game %s: %w", result.ExternalID, err)
	}

	s.log.Info(ctx, "game added", "challenge_id", challengeID, "game_id", item.GameID, "external_id", result.ExternalID)
	return item, nil
}

// checkNotTracked reports common.ErrDuplicateItem when the catalogue already
// has the game and the challenge tracks it.
func (s *TrackerService) checkNotTracked(ctx context.Context, challengeID, externalID string) error {
	game, err := s.repomanager.Games(s.db).GetByExternalID(ctx, externalID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.repomanager.Items(s.db).Get(ctx, challengeID, game.ID)
	switch {
	case err == nil:
		return fmt.Errorf("add game %s: %w", externalID, common.ErrDuplicateItem)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

// RemoveGame stops tracking the game and deletes the user's plays of it in
// the same transaction. Photos of the removed plays are deleted afterwards on
// a best-effort basis.
func (s *TrackerService) RemoveGame(ctx context.Context, userID, challengeID, gameID string) error {
	var removed []*models.Play
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Items(tx).Delete(ctx, challengeID, gameID); err != nil {
			return err
		}

		playRepo := s.repomanager.Plays(tx)
		var err error
		removed, err = playRepo.ListByGame(ctx, userID, gameID)
		if err != nil {
			return err
		}
		_, err = playRepo.DeleteByGame(ctx, userID, gameID)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove game %s: %w", gameID, err)
	}

	for _, p := range removed {
		s.deleteImages(ctx, p.ImageURLs)
	}
	s.log.Info(ctx, "game removed", "challenge_id", challengeID, "game_id", gameID, "plays", len(removed))
	return nil
}

// LogPlay stores a new play of a tracked game, uploading its photos first,
// then recomputes the item's progress from the play count. Minutes outside
// [0,59] are clamped.
func (s *TrackerService) LogPlay(ctx context.Context, userID, challengeID, gameID string, in models.PlayInput) (*models.Play, error) {
	in = in.Normalize()
	if err := in.Validate(s.maxImageBytes, 0); err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Items(s.db).Get(ctx, challengeID, gameID); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, userID, gameID, in.Images)
	if err != nil {
		return nil, err
	}

	play := &models.Play{
		ID:              uuid.NewString(),
		UserID:          userID,
		GameID:          gameID,
		PlayedOn:        in.PlayedOn,
		DurationMinutes: in.Duration(),
		IsVictory:       in.IsVictory,
		Notes:           in.Notes,
		ImageURLs:       urls,
	}
	if err := s.repomanager.Plays(s.db).Insert(ctx, play); err != nil {
		s.deleteImages(ctx, urls)
		return nil, err
	}

	s.recomputeProgress(ctx, userID, challengeID, gameID)
	return play, nil
}

// UpdatePlay replaces the editable fields of a play. New photos are appended
// to the existing ones; existing photos are never dropped.
func (s *TrackerService) UpdatePlay(ctx context.Context, userID, challengeID, playID string, in models.PlayInput) (*models.Play, error) {
	playRepo := s.repomanager.Plays(s.db)
	play, err := playRepo.Get(ctx, userID, playID)
	if err != nil {
		return nil, err
	}
	in = in.Normalize()
	if err := in.Validate(s.maxImageBytes, len(play.ImageURLs)); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, userID, play.GameID, in.Images)
	if err != nil {
		return nil, err
	}

	play.PlayedOn = in.PlayedOn
	play.DurationMinutes = in.Duration()
	play.IsVictory = in.IsVictory
	play.Notes = in.Notes
	play.ImageURLs = mergeURLs(play.ImageURLs, urls)

	if err := playRepo.Update(ctx, play); err != nil {
		s.deleteImages(ctx, urls)
		return nil, err
	}

	s.recomputeProgress(ctx, userID, challengeID, play.GameID)
	return play, nil
}

// DeletePlay removes the play and recomputes the item's progress. gameID
// must match the play's game.
func (s *TrackerService) DeletePlay(ctx context.Context, userID, challengeID, playID, gameID string) error {
	playRepo := s.repomanager.Plays(s.db)
	play, err := playRepo.Get(ctx, userID, playID)
	if err != nil {
		return err
	}
	if gameID != "" && play.GameID != gameID {
		return common.ErrorNotFound
	}

	if err := playRepo.Delete(ctx, userID, playID); err != nil {
		return err
	}

	s.deleteImages(ctx, play.ImageURLs)
	s.recomputeProgress(ctx, userID, challengeID, play.GameID)
	return nil
}

// GetHistory returns the user's plays of one game, newest first.
func (s *TrackerService) GetHistory(ctx context.Context, userID, gameID string) ([]*models.Play, error) {
	return s.repomanager.Plays(s.db).ListByGame(ctx, userID, gameID)
}

// GetAllPlays returns every play of the user, oldest first.
func (s *TrackerService) GetAllPlays(ctx context.Context, userID string) ([]*models.Play, error) {
	return s.repomanager.Plays(s.db).ListByUser(ctx, userID)
}

// GetGame returns the stored metadata of one game.
func (s *TrackerService) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	return s.repomanager.Games(s.db).GetByID(ctx, gameID)
}

// GetItem returns one tracked game of the challenge.
func (s *TrackerService) GetItem(ctx context.Context, challengeID, gameID string) (*models.ChallengeItem, error) {
	return s.repomanager.Items(s.db).Get(ctx, challengeID, gameID)
}

// ReconcileAll repairs every stale progress value and reports how many
// items changed.
func (s *TrackerService) ReconcileAll(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Items(s.db).RecomputeAllProgress(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warn(ctx, "stale progress repaired", "items", n)
	}
	return n, nil
}

// recomputeProgress stores the fresh play count as the item's progress. The
// play write has already succeeded, so a failure here only leaves a stale
// cache that ReconcileAll or the next write repairs.
func (s *TrackerService) recomputeProgress(ctx context.Context, userID, challengeID, gameID string) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Plays(tx).CountByGame(ctx, userID, gameID)
		if err != nil {
			return err
		}
		return s.repomanager.Items(tx).SetProgress(ctx, challengeID, gameID, n)
	})
	if err != nil {
		s.log.Warn(ctx, "progress recompute failed, cached progress is stale",
			"challenge_id", challengeID, "game_id", gameID, "error", err.Error())
	}
}

// uploadImages stores all files concurrently and returns their URLs in input
// order. If any upload fails the ones that succeeded are deleted again.
func (s *TrackerService) uploadImages(ctx context.Context, userID, gameID string, files []models.ImageFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	urls := make([]string, len(files))
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			key := blobstore.ObjectKey(userID, gameID, f.Name, now)
			url, err := s.blobs.Put(gctx, key, f.ContentType, f.Data)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.deleteImages(ctx, urls)
		return nil, common.StorageFailure("upload images", err)
	}
	return urls, nil
}

func (s *TrackerService) deleteImages(ctx context.Context, urls []string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		key, ok := s.blobs.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "orphaned image left in storage", "key", key, "error", err.Error())
		}
	}
}

func (s *TrackerService) pickColor() string {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return PickMeepleColor(s.rnd)
}

// mergeURLs appends added to existing, skipping duplicates.
func mergeURLs(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, u := range append(append([]string(nil), existing...), added...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
