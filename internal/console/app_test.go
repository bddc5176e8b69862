package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/playtracker/internal/server/auth"
	"github.com/dmitrijs2005/playtracker/internal/server/config"
	"github.com/dmitrijs2005/playtracker/internal/server/lookup"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/session"
)

func newTestApp(t *testing.T, input string, token string) (*App, *bytes.Buffer) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(token), nil }
	t.Cleanup(func() { readPassword = old })

	cfg := &config.Config{SecretKey: "s3cret", AccessTokenValidityDuration: time.Hour}
	var out bytes.Buffer
	return &App{
		config:   cfg,
		sessions: session.NewManager([]byte(cfg.SecretKey)),
		reader:   rdr(input),
		out:      &out,
		now:      time.Now,
	}, &out
}

func TestLogin_IssuesToken(t *testing.T) {
	a, out := newTestApp(t, "u1\n", "")

	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(u1)", a.getStatus())
	assert.Contains(t, out.String(), "Issued token:")

	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "", a.getStatus())
}

func TestLogin_PastedToken(t *testing.T) {
	tok, err := auth.GenerateToken("u7", []byte("s3cret"), time.Hour)
	require.NoError(t, err)
	a, out := newTestApp(t, "", tok)

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "u7", a.sessions.Current().UserID)
	assert.NotContains(t, out.String(), "Issued token:")
}

func TestLogin_Rejected(t *testing.T) {
	tok, err := auth.GenerateToken("u7", []byte("other"), time.Hour)
	require.NoError(t, err)
	a, _ := newTestApp(t, "", tok)

	assert.Error(t, a.Login(context.Background()))
	assert.False(t, a.isLoggedIn())

	b, _ := newTestApp(t, "\n", "")
	assert.Error(t, b.Login(context.Background()))
}

func TestReadPlayInput(t *testing.T) {
	a, _ := newTestApp(t, "2025-03-01\n1\n30\ny\ngreat game\n\n\n", "")

	in, err := a.readPlayInput()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), in.PlayedOn)
	assert.Equal(t, 1, in.Hours)
	assert.Equal(t, 30, in.Minutes)
	assert.True(t, in.IsVictory)
	assert.Equal(t, "great game", in.Notes)
	assert.Empty(t, in.Images)
}

func TestReadPlayInput_DefaultsToToday(t *testing.T) {
	a, _ := newTestApp(t, "\n\n\n\n\n\n", "")
	a.now = func() time.Time { return time.Date(2025, 6, 9, 22, 15, 0, 0, time.UTC) }

	in, err := a.readPlayInput()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), in.PlayedOn)
	assert.False(t, in.IsVictory)
}

func TestReadPlayInput_BadDate(t *testing.T) {
	a, _ := newTestApp(t, "03/01/2025\n", "")
	_, err := a.readPlayInput()
	assert.Error(t, err)
}

func TestSearch_Debounced(t *testing.T) {
	a, out := newTestApp(t, "", "")
	var queries []string
	a.search = lookup.NewDebouncer(5*time.Millisecond, func(_ context.Context, q string) []models.SearchResult {
		queries = append(queries, q)
		return []models.SearchResult{{ExternalID: "13", Name: "Catan"}}
	})

	require.NoError(t, a.Search(context.Background(), "ca"))
	assert.Contains(t, out.String(), "No results.")
	assert.Empty(t, queries)

	require.NoError(t, a.Search(context.Background(), "catan"))
	assert.Contains(t, out.String(), "13  Catan")
	assert.Equal(t, []string{"catan"}, queries)
}
