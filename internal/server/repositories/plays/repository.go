package plays

import (
	"context"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, play *models.Play) error
	Update(ctx context.Context, play *models.Play) error
	Get(ctx context.Context, userID, playID string) (*models.Play, error)
	Delete(ctx context.Context, userID, playID string) error
	DeleteByGame(ctx context.Context, userID, gameID string) (int64, error)
	ListByGame(ctx context.Context, userID, gameID string) ([]*models.Play, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Play, error)
	CountByGame(ctx context.Context, userID, gameID string) (int, error)
}
