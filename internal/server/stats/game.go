package stats

import (
	"time"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// GameSummary backs the per-game detail view.
type GameSummary struct {
	Plays           int        `json:"plays"`
	Wins            int        `json:"wins"`
	WinRatePercent  int        `json:"win_rate_percent"`
	TotalMinutes    int        `json:"total_minutes"`
	LastPlayedOn    *time.Time `json:"last_played_on,omitempty"`
	Progress        int        `json:"progress"`
	Target          int        `json:"target"`
	ProgressPercent int        `json:"progress_percent"`
}

// ComputeGameSummary summarises one game's history against its challenge item.
// ProgressPercent is capped at 100 even when more plays than the target were logged.
func ComputeGameSummary(item *models.ChallengeItem, history []*models.Play) GameSummary {
	s := GameSummary{Plays: len(history)}
	for _, p := range history {
		if p.IsVictory {
			s.Wins++
		}
		s.TotalMinutes += durationOrDefault(p)
		if s.LastPlayedOn == nil || p.PlayedOn.After(*s.LastPlayedOn) {
			d := p.PlayedOn
			s.LastPlayedOn = &d
		}
	}
	s.WinRatePercent = percent(s.Wins, s.Plays)

	if item != nil {
		s.Progress = item.Progress
		s.Target = item.Target
		s.ProgressPercent = min(percent(item.Progress, item.Target), 100)
	}
	return s
}
