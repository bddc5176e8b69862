// Package challenges reads the per-user challenge row. Provisioning happens
// outside this service.
package challenges

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserID returns the user's challenge or common.ErrorNotFound.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Challenge, error) {
	query := `SELECT id, user_id, created_at FROM challenges WHERE user_id = $1`

	c := &models.Challenge{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageFailure("select challenge", err)
	}
	return c, nil
}
