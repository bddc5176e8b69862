package games

import (
	"context"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, game *models.Game) (*models.Game, error)
	GetByID(ctx context.Context, id string) (*models.Game, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Game, error)
}
