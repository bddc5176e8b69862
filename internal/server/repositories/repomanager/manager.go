package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/playtracker/internal/dbx"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/games"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/items"
	"github.com/dmitrijs2005/playtracker/internal/server/repositories/plays"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Games(db dbx.DBTX) games.Repository
	Challenges(db dbx.DBTX) challenges.Repository
	Items(db dbx.DBTX) items.Repository
	Plays(db dbx.DBTX) plays.Repository
}
