// Package plays stores logged play sessions. Every query is scoped by the
// owning user id.
package plays

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/jackc/pgx/v5/pgtype"
)

type PostgresRepository struct {
	db    dbx.DBTX
	types *pgtype.Map
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, types: pgtype.NewMap()}
}

const selectPlays = `
	SELECT id, user_id, game_id, played_on, duration_minutes, is_victory, notes, image_urls, created_at
	FROM plays
`

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanPlay(s scanner) (*models.Play, error) {
	var (
		p        models.Play
		duration sql.NullInt64
		urls     []string
	)
	err := s.Scan(&p.ID, &p.UserID, &p.GameID, &p.PlayedOn, &duration, &p.IsVictory, &p.Notes,
		r.types.SQLScanner(&urls), &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		p.DurationMinutes = &d
	}
	if urls == nil {
		urls = []string{}
	}
	p.ImageURLs = urls
	return &p, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Play, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StorageFailure("select plays", err)
	}
	defer rows.Close()

	result := make([]*models.Play, 0)
	for rows.Next() {
		p, err := r.scanPlay(rows)
		if err != nil {
			return nil, common.StorageFailure("scan play", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("iterate plays", err)
	}
	return result, nil
}

func imageURLs(p *models.Play) []string {
	if p.ImageURLs == nil {
		return []string{}
	}
	return p.ImageURLs
}

// Insert stores a new play; CreatedAt is filled from the database.
func (r *PostgresRepository) Insert(ctx context.Context, p *models.Play) error {
	query := `
		INSERT INTO plays (id, user_id, game_id, played_on, duration_minutes, is_victory, notes, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.GameID, p.PlayedOn, p.DurationMinutes, p.IsVictory, p.Notes, imageURLs(p),
	).Scan(&p.CreatedAt)
	if err != nil {
		return common.StorageFailure("insert play", err)
	}
	return nil
}

// Update rewrites the editable fields of a play owned by p.UserID.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Play) error {
	query := `
		UPDATE plays
		SET played_on = $3, duration_minutes = $4, is_victory = $5, notes = $6, image_urls = $7
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.PlayedOn, p.DurationMinutes, p.IsVictory, p.Notes, imageURLs(p))
	if err != nil {
		return common.StorageFailure("update play", err)
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

// Get returns one play of the user or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID, playID string) (*models.Play, error) {
	p, err := r.scanPlay(r.db.QueryRowContext(ctx, selectPlays+`WHERE id = $1 AND user_id = $2`, playID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageFailure("select play", err)
	}
	return p, nil
}

// Delete removes one play of the user.
func (r *PostgresRepository) Delete(ctx context.Context, userID, playID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plays WHERE id = $1 AND user_id = $2`, playID, userID)
	if err != nil {
		return common.StorageFailure("delete play", err)
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

// DeleteByGame removes every play the user logged for the game.
func (r *PostgresRepository) DeleteByGame(ctx context.Context, userID, gameID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plays WHERE user_id = $1 AND game_id = $2`, userID, gameID)
	if err != nil {
		return 0, common.StorageFailure("delete plays", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.StorageFailure("rows affected", err)
	}
	return n, nil
}

// ListByGame returns the user's plays of one game, newest first.
func (r *PostgresRepository) ListByGame(ctx context.Context, userID, gameID string) ([]*models.Play, error) {
	return r.list(ctx, selectPlays+`WHERE user_id = $1 AND game_id = $2
	ORDER BY played_on DESC, created_at DESC`, userID, gameID)
}

// ListByUser returns all plays of the user in chronological order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Play, error) {
	return r.list(ctx, selectPlays+`WHERE user_id = $1
	ORDER BY played_on ASC, created_at ASC`, userID)
}

// CountByGame is the source of truth for challenge item progress.
func (r *PostgresRepository) CountByGame(ctx context.Context, userID, gameID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM plays WHERE user_id = $1 AND game_id = $2`, userID, gameID).Scan(&n)
	if err != nil {
		return 0, common.StorageFailure("count plays", err)
	}
	return n, nil
}
