package games

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const upsertQuery = `(?s)INSERT INTO games .* ON CONFLICT \(external_id\)\s+DO UPDATE SET .* RETURNING id`

func TestUpsert_ReturnsStoredID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	year, rating := 1995, 7.1
	mock.ExpectQuery(upsertQuery).
		WithArgs("13", "Catan", "https://t/1.jpg", "", "", &year, nil, &rating, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g-1"))

	got, err := repo.Upsert(context.Background(), &models.Game{
		ExternalID:    "13",
		Name:          "Catan",
		ThumbnailURL:  "https://t/1.jpg",
		YearPublished: &year,
		Rating:        &rating,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Upsert(context.Background(), &models.Game{ExternalID: "13", Name: "Catan"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetByID_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "external_id", "name", "thumbnail_url", "image_url", "description",
		"year_published", "playing_time", "rating", "complexity",
	}).AddRow("g-1", "13", "Catan", "t", "i", "d", int64(1995), nil, 7.1, nil)

	mock.ExpectQuery(`SELECT id, external_id, name .* FROM games\s+WHERE id = \$1`).
		WithArgs("g-1").
		WillReturnRows(rows)

	g, err := repo.GetByID(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Equal(t, "Catan", g.Name)
	require.NotNil(t, g.YearPublished)
	assert.Equal(t, 1995, *g.YearPublished)
	assert.Nil(t, g.PlayingTime)
	require.NotNil(t, g.Rating)
	assert.InDelta(t, 7.1, *g.Rating, 1e-9)
	assert.Nil(t, g.Complexity, "unknown complexity must stay unset, not zero")
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM games`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByExternalID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "external_id", "name", "thumbnail_url", "image_url", "description",
		"year_published", "playing_time", "rating", "complexity",
	}).AddRow("g-1", "13", "Catan", "", "", "", nil, nil, nil, nil)

	mock.ExpectQuery(`FROM games\s+WHERE external_id = \$1`).WithArgs("13").WillReturnRows(rows)
	mock.ExpectQuery(`FROM games\s+WHERE external_id = \$1`).WithArgs("404").WillReturnError(sql.ErrNoRows)

	g, err := repo.GetByExternalID(context.Background(), "13")
	require.NoError(t, err)
	assert.Equal(t, "g-1", g.ID)
	assert.Nil(t, g.YearPublished)

	_, err = repo.GetByExternalID(context.Background(), "404")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
