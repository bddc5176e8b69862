package items

import (
	"context"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type Repository interface {
	ListByChallenge(ctx context.Context, challengeID string) ([]*models.ChallengeItem, error)
	Get(ctx context.Context, challengeID, gameID string) (*models.ChallengeItem, error)
	Count(ctx context.Context, challengeID string) (int, error)
	Insert(ctx context.Context, item *models.ChallengeItem) error
	Delete(ctx context.Context, challengeID, gameID string) error
	SetProgress(ctx context.Context, challengeID, gameID string, progress int) error
	RecomputeAllProgress(ctx context.Context) (int64, error)
}
