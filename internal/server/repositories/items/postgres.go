// Package items stores challenge items: the (challenge, game) pairs with their
// cached progress, joined with the game row on reads.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/games"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectItems = `
	SELECT ci.challenge_id, ci.game_id, ci.progress, ci.target, ci.meeple_color, ci.created_at,
		g.id, g.external_id, g.name, g.thumbnail_url, g.image_url, g.description,
		g.year_published, g.playing_time, g.rating, g.complexity
	FROM challenge_items ci
	JOIN games g ON g.id = ci.game_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.ChallengeItem, error) {
	var (
		item              models.ChallengeItem
		g                 models.Game
		year, playingTime sql.NullInt64
		rating, weight    sql.NullFloat64
	)
	err := s.Scan(
		&item.ChallengeID, &item.GameID, &item.Progress, &item.Target, &item.MeepleColor, &item.CreatedAt,
		&g.ID, &g.ExternalID, &g.Name, &g.ThumbnailURL, &g.ImageURL, &g.Description,
		&year, &playingTime, &rating, &weight,
	)
	if err != nil {
		return nil, err
	}
	g.YearPublished = games.IntPtr(year)
	g.PlayingTime = games.IntPtr(playingTime)
	g.Rating = games.FloatPtr(rating)
	g.Complexity = games.FloatPtr(weight)
	item.Game = &g
	return &item, nil
}

// ListByChallenge returns the challenge's items in insertion order.
func (r *PostgresRepository) ListByChallenge(ctx context.Context, challengeID string) ([]*models.ChallengeItem, error) {
	query := selectItems + `
	WHERE ci.challenge_id = $1
	ORDER BY ci.created_at ASC, g.name ASC`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, common.StorageFailure("select items", err)
	}
	defer rows.Close()

	result := make([]*models.ChallengeItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, common.StorageFailure("scan item", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("iterate items", err)
	}
	return result, nil
}

// Get returns one item or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, challengeID, gameID string) (*models.ChallengeItem, error) {
	query := selectItems + `
	WHERE ci.challenge_id = $1 AND ci.game_id = $2`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, challengeID, gameID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageFailure("select item", err)
	}
	return item, nil
}

// Count returns the number of games tracked by the challenge.
func (r *PostgresRepository) Count(ctx context.Context, challengeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM challenge_items WHERE challenge_id = $1`, challengeID).Scan(&n)
	if err != nil {
		return 0, common.StorageFailure("count items", err)
	}
	return n, nil
}

// Insert adds the item. A second insert of the same (challenge, game) pair
// fails with common.ErrDuplicateItem.
func (r *PostgresRepository) Insert(ctx context.Context, item *models.ChallengeItem) error {
	query := `
		INSERT INTO challenge_items (challenge_id, game_id, progress, target, meeple_color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		item.ChallengeID, item.GameID, item.Progress, item.Target, item.MeepleColor,
	).Scan(&item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrDuplicateItem
		}
		return common.StorageFailure("insert item", err)
	}
	return nil
}

// Delete removes the item; common.ErrorNotFound when nothing matched.
func (r *PostgresRepository) Delete(ctx context.Context, challengeID, gameID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM challenge_items WHERE challenge_id = $1 AND game_id = $2`, challengeID, gameID)
	if err != nil {
		return common.StorageFailure("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageFailure("rows affected", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// SetProgress stores a freshly counted progress value.
func (r *PostgresRepository) SetProgress(ctx context.Context, challengeID, gameID string, progress int) error {
	if progress < 0 {
		return fmt.Errorf("negative progress %d", progress)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenge_items SET progress = $3 WHERE challenge_id = $1 AND game_id = $2`,
		challengeID, gameID, progress)
	if err != nil {
		return common.StorageFailure("update progress", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageFailure("rows affected", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// RecomputeAllProgress rewrites every item whose cached progress disagrees
// with the number of plays its owner logged for the game. It returns the
// number of corrected rows.
func (r *PostgresRepository) RecomputeAllProgress(ctx context.Context) (int64, error) {
	query := `
		UPDATE challenge_items ci
		SET progress = counts.n
		FROM (
			SELECT ci2.challenge_id, ci2.game_id, count(p.id) AS n
			FROM challenge_items ci2
			JOIN challenges c ON c.id = ci2.challenge_id
			LEFT JOIN plays p ON p.user_id = c.user_id AND p.game_id = ci2.game_id
			GROUP BY ci2.challenge_id, ci2.game_id
		) counts
		WHERE ci.challenge_id = counts.challenge_id
			AND ci.game_id = counts.game_id
			AND ci.progress <> counts.n
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, common.StorageFailure("recompute progress", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.StorageFailure("rows affected", err)
	}
	return n, nil
}
