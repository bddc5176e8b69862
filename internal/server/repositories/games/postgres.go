// Package games stores the shared board-game catalogue, one row per external id.
package games

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// PostgresRepository implements game storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts the game or refreshes its metadata when a row with the same
// external_id already exists. The stored id is written back into game.
// Known metadata is never overwritten by an unknown (NULL) value.
func (r *PostgresRepository) Upsert(ctx context.Context, game *models.Game) (*models.Game, error) {
	query := `
		INSERT INTO games (external_id, name, thumbnail_url, image_url, description,
			year_published, playing_time, rating, complexity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			thumbnail_url = COALESCE(NULLIF(EXCLUDED.thumbnail_url, ''), games.thumbnail_url),
			image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), games.image_url),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), games.description),
			year_published = COALESCE(EXCLUDED.year_published, games.year_published),
			playing_time = COALESCE(EXCLUDED.playing_time, games.playing_time),
			rating = COALESCE(EXCLUDED.rating, games.rating),
			complexity = COALESCE(EXCLUDED.complexity, games.complexity),
			updated_at = now()
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		game.ExternalID, game.Name, game.ThumbnailURL, game.ImageURL, game.Description,
		game.YearPublished, game.PlayingTime, game.Rating, game.Complexity,
	).Scan(&game.ID)
	if err != nil {
		return nil, common.StorageFailure("upsert game", err)
	}
	return game, nil
}

const selectGame = `
	SELECT id, external_id, name, thumbnail_url, image_url, description,
		year_published, playing_time, rating, complexity
	FROM games
`

// GetByID returns the game or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	return r.getOne(ctx, selectGame+"WHERE id = $1", id)
}

// GetByExternalID returns the catalogue entry for an external id or
// common.ErrorNotFound.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Game, error) {
	return r.getOne(ctx, selectGame+"WHERE external_id = $1", externalID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Game, error) {
	var (
		g                 models.Game
		year, playingTime sql.NullInt64
		rating, weight    sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&g.ID, &g.ExternalID, &g.Name, &g.ThumbnailURL, &g.ImageURL, &g.Description,
		&year, &playingTime, &rating, &weight,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageFailure("select game", err)
	}
	g.YearPublished = IntPtr(year)
	g.PlayingTime = IntPtr(playingTime)
	g.Rating = FloatPtr(rating)
	g.Complexity = FloatPtr(weight)
	return &g, nil
}

// IntPtr converts a nullable column into an optional value.
func IntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// FloatPtr converts a nullable column into an optional value.
func FloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
