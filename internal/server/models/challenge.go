package models

import "time"

// DefaultTarget is the per-item play goal.
const DefaultTarget = 10

// MaxChallengeGames is the number of games a challenge may track.
const MaxChallengeGames = 10

// Challenge is the single 10x10 campaign owned by a user.
type Challenge struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// ChallengeItem links a Challenge to a Game. Progress caches the number of
// plays logged for that game and is always recomputed from the plays table.
type ChallengeItem struct {
	ChallengeID string
	GameID      string
	Progress    int
	Target      int
	MeepleColor string
	CreatedAt   time.Time

	Game *Game
}

// Completed reports whether the item reached its target.
func (i *ChallengeItem) Completed() bool {
	return i.Target > 0 && i.Progress >= i.Target
}
