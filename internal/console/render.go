package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
	"github.com/dmitrijs2005/playtracker/internal/server/stats"
)

const barWidth = 10

func progressBar(progress, target int) string {
	if target <= 0 {
		return strings.Repeat(".", barWidth)
	}
	filled := min(progress*barWidth/target, barWidth)
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}

func renderItems(w io.Writer, items []*models.ChallengeItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No games yet. Use 'search' and 'add'.")
		return
	}
	for _, it := range items {
		mark := " "
		if it.Completed() {
			mark = "*"
		}
		fmt.Fprintf(w, "%s [%s] %2d/%-2d %-8s %s (%s)\n",
			mark, progressBar(it.Progress, it.Target), it.Progress, it.Target, it.MeepleColor, gameName(it), it.GameID)
	}
}

func renderSearch(w io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for _, r := range results {
		year := ""
		if r.YearPublished != nil {
			year = fmt.Sprintf(" (%d)", *r.YearPublished)
		}
		fmt.Fprintf(w, "%8s  %s%s\n", r.ExternalID, r.Name, year)
	}
}

func renderPlays(w io.Writer, plays []*models.Play) {
	if len(plays) == 0 {
		fmt.Fprintln(w, "  no plays")
		return
	}
	for _, p := range plays {
		result := "loss"
		if p.IsVictory {
			result = "win"
		}
		dur := "-"
		if p.DurationMinutes != nil {
			h, m := models.SplitDuration(*p.DurationMinutes)
			dur = fmt.Sprintf("%dh%02dm", h, m)
		}
		fmt.Fprintf(w, "  %s  %-4s %-6s %s", p.PlayedOn.Format(models.DateLayout), result, dur, p.ID)
		if n := len(p.ImageURLs); n > 0 {
			fmt.Fprintf(w, "  [%d photo(s)]", n)
		}
		fmt.Fprintln(w)
	}
}

func renderSummary(w io.Writer, name string, s stats.GameSummary) {
	fmt.Fprintf(w, "%s: %d/%d (%d%%), %d wins (%d%%), %d min played\n",
		name, s.Progress, s.Target, s.ProgressPercent, s.Wins, s.WinRatePercent, s.TotalMinutes)
	if s.LastPlayedOn != nil {
		fmt.Fprintf(w, "Last played %s\n", s.LastPlayedOn.Format(models.DateLayout))
	}
}

func renderStats(w io.Writer, k stats.KPIs, lvl stats.LevelStatus, months []stats.MonthPoint) {
	fmt.Fprintf(w, "Plays %d  Wins %d (%d%%)  Hours %d  H-index %d\n",
		k.TotalPlays, k.Wins, k.WinRatePercent, k.TotalHours, k.HIndex)

	fmt.Fprintf(w, "Level %d %s %s", lvl.LevelIndex+1, lvl.Icon, lvl.Title)
	if lvl.NextTitle != "" {
		fmt.Fprintf(w, ", %d%% of the way to %s at %d plays", lvl.PercentWithinLevel, lvl.NextTitle, lvl.NextThreshold)
	} else {
		fmt.Fprintf(w, ", %d%% of the way to %d plays", lvl.PercentWithinLevel, lvl.NextThreshold)
	}
	fmt.Fprintln(w)

	for _, m := range months {
		fmt.Fprintf(w, "  %-8s %3d %s (%d)\n", m.Label, m.Count, strings.Repeat("|", m.Count), m.CumulativeCount)
	}
}
