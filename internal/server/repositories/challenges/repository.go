package challenges

import (
	"context"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Challenge, error)
}
