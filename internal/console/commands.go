package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/stats"
)

const recentCount = 5

func (a *App) Items(ctx context.Context) error {
	if err := a.view.Refresh(ctx); err != nil {
		return err
	}
	renderItems(a.out, a.view.Items())
	return nil
}

// Search goes through the debouncer so it behaves like the search box:
// short queries come back empty without a lookup.
func (a *App) Search(ctx context.Context, query string) error {
	done := make(chan []models.SearchResult, 1)
	a.search.Submit(ctx, query, func(r []models.SearchResult) { done <- r })

	select {
	case r := <-done:
		renderSearch(a.out, r)
		return nil
	case <-ctx.Done():
		a.search.Stop()
		return ctx.Err()
	}
}

func (a *App) Add(ctx context.Context) error {
	_, challengeID, err := a.view.Scope(ctx)
	if err != nil {
		return err
	}

	externalID, err := GetSimpleText(a.reader, "Game id (from search)", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Name (optional)", a.out)
	if err != nil {
		return err
	}

	item, err := a.tracker.AddGame(ctx, challengeID, models.SearchResult{ExternalID: externalID, Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s as %s\n", gameName(item), item.GameID)
	return a.view.Refresh(ctx)
}

func (a *App) Remove(ctx context.Context) error {
	userID, challengeID, err := a.view.Scope(ctx)
	if err != nil {
		return err
	}

	gameID, err := GetSimpleText(a.reader, "Game id to remove", a.out)
	if err != nil {
		return err
	}
	ok, err := GetYesNo(a.reader, "This also deletes every play of the game. Continue?", false, a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.tracker.RemoveGame(ctx, userID, challengeID, gameID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed")
	return a.view.Refresh(ctx)
}

func (a *App) Log(ctx context.Context) error {
	gameID, err := GetSimpleText(a.reader, "Game id", a.out)
	if err != nil {
		return err
	}
	in, err := a.readPlayInput()
	if err != nil {
		return err
	}

	p, err := a.view.LogPlay(ctx, gameID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged play %s\n", p.ID)
	renderItems(a.out, a.view.Items())
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	playID, err := GetSimpleText(a.reader, "Play id", a.out)
	if err != nil {
		return err
	}
	gameID, err := GetSimpleText(a.reader, "Game id", a.out)
	if err != nil {
		return err
	}

	if err := a.view.DeletePlay(ctx, playID, gameID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) History(ctx context.Context) error {
	userID, challengeID, err := a.view.Scope(ctx)
	if err != nil {
		return err
	}
	gameID, err := GetSimpleText(a.reader, "Game id", a.out)
	if err != nil {
		return err
	}

	item, err := a.tracker.GetItem(ctx, challengeID, gameID)
	if err != nil {
		return err
	}
	plays, err := a.tracker.GetHistory(ctx, userID, gameID)
	if err != nil {
		return err
	}

	renderSummary(a.out, gameName(item), stats.ComputeGameSummary(item, plays))
	renderPlays(a.out, plays)
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	userID, _, err := a.view.Scope(ctx)
	if err != nil {
		return err
	}
	plays, err := a.tracker.GetAllPlays(ctx, userID)
	if err != nil {
		return err
	}

	kpis := stats.ComputeKPIs(plays)
	renderStats(a.out, kpis, stats.ComputeLevel(kpis.TotalPlays), stats.ComputeMonthlySeries(plays))
	fmt.Fprintln(a.out, "Recent:")
	renderPlays(a.out, stats.ComputeRecentHistory(plays, recentCount))
	return nil
}

// readPlayInput prompts for one play. An empty date means today.
func (a *App) readPlayInput() (models.PlayInput, error) {
	var in models.PlayInput

	d, err := GetSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", a.out)
	if err != nil {
		return in, err
	}
	if d == "" {
		y, m, day := a.now().Date()
		in.PlayedOn = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	} else if in.PlayedOn, err = time.Parse(models.DateLayout, d); err != nil {
		return in, &common.ValidationError{Field: "played_on", Reason: "expected YYYY-MM-DD"}
	}

	if in.Hours, err = GetInt(a.reader, "Hours", 0, a.out); err != nil {
		return in, err
	}
	if in.Minutes, err = GetInt(a.reader, "Minutes", 0, a.out); err != nil {
		return in, err
	}
	if in.IsVictory, err = GetYesNo(a.reader, "Victory?", false, a.out); err != nil {
		return in, err
	}
	if in.Notes, err = GetMultiline(a.reader, "Notes", a.out); err != nil {
		return in, err
	}

	photos, err := GetSimpleText(a.reader, "Photo paths, comma separated (optional)", a.out)
	if err != nil {
		return in, err
	}
	if in.Images, err = LoadPhotos(photos); err != nil {
		return in, err
	}
	return in, nil
}

func gameName(it *models.ChallengeItem) string {
	if it.Game != nil && strings.TrimSpace(it.Game.Name) != "" {
		return it.Game.Name
	}
	return it.GameID
}
