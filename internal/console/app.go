// Package console is an interactive operator shell over the tracker service.
// It signs in as a user with an access token and works on that user's
// challenge directly against the database.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/logging"
	"github.com/dmitrijs2005/playtracker/internal/server"
	"github.com/dmitrijs2005/playtracker/internal/server/auth"
	"github.com/dmitrijs2005/playtracker/internal/server/config"
	"github.com/dmitrijs2005/playtracker/internal/server/lookup"
	"github.com/dmitrijs2005/playtracker/internal/server/services"
	"github.com/dmitrijs2005/playtracker/internal/server/session"
)

type App struct {
	config   *config.Config
	core     *server.Core
	tracker  *services.TrackerService
	sessions *session.Manager
	view     *services.ItemsView
	search   *lookup.Debouncer
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stderr, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, err
	}

	core, err := server.OpenCore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager([]byte(c.SecretKey))
	return &App{
		config:   c,
		core:     core,
		tracker:  core.Tracker,
		sessions: sessions,
		view:     services.NewItemsView(core.Tracker, sessions),
		search:   lookup.NewDebouncer(lookup.DefaultQuietPeriod, core.Tracker.Search),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Play tracker console (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.search != nil {
		a.search.Stop()
	}
	if a.view != nil {
		a.view.Close()
	}
	if a.core != nil {
		a.core.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Current().Active()
}

func (a *App) getStatus() string {
	if s := a.sessions.Current(); s.Active() {
		return fmt.Sprintf("(%s)", s.UserID)
	}
	return ""
}

// Login signs in with a pasted token. An empty token issues a fresh one for
// a user id, valid for the configured access token lifetime.
func (a *App) Login(ctx context.Context) error {
	token, err := GetSecret("Paste access token (empty to issue one)", a.out)
	if err != nil {
		return err
	}

	if token == "" {
		userID, err := GetSimpleText(a.reader, "User id", a.out)
		if err != nil {
			return err
		}
		if userID == "" {
			return fmt.Errorf("user id is required")
		}
		token, err = auth.GenerateToken(userID, []byte(a.config.SecretKey), a.config.AccessTokenValidityDuration)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Issued token:\n%s\n", token)
	}

	s, err := a.sessions.SignIn(token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", s.UserID)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.SignOut()
	fmt.Fprintln(a.out, "Signed out")
	return nil
}
