package stats

import "math"

// Level is one rung of the gamification ladder.
type Level struct {
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
}

// Levels is ordered by ascending Threshold.
var Levels = []Level{
	{Threshold: 0, Title: "Vagabond", Icon: "🎒"},
	{Threshold: 5, Title: "Apprentice", Icon: "🎲"},
	{Threshold: 15, Title: "Squire", Icon: "🛡️"},
	{Threshold: 30, Title: "Adventurer", Icon: "🗺️"},
	{Threshold: 50, Title: "Tactician", Icon: "♟️"},
	{Threshold: 65, Title: "Strategist", Icon: "🧠"},
	{Threshold: 78, Title: "Veteran", Icon: "⚔️"},
	{Threshold: 88, Title: "Champion", Icon: "🏅"},
	{Threshold: 95, Title: "Grandmaster", Icon: "👑"},
	{Threshold: 100, Title: "Legend", Icon: "🏆"},
	{Threshold: 110, Title: "Mythic", Icon: "🐉"},
}

// OpenEndedStep is the gap to the synthetic next level once the table is exhausted.
const OpenEndedStep = 15

// LevelStatus places a play count on the ladder.
type LevelStatus struct {
	LevelIndex         int    `json:"level_index"`
	Title              string `json:"title"`
	Icon               string `json:"icon"`
	CurrentThreshold   int    `json:"current_threshold"`
	NextThreshold      int    `json:"next_threshold"`
	NextTitle          string `json:"next_title,omitempty"`
	PercentWithinLevel int    `json:"percent_within_level"`
}

// ComputeLevel returns the highest level whose threshold is <= totalPlays.
// An exact threshold match lands on that level.
func ComputeLevel(totalPlays int) LevelStatus {
	idx := 0
	for i := len(Levels) - 1; i >= 0; i-- {
		if Levels[i].Threshold <= totalPlays {
			idx = i
			break
		}
	}
	cur := Levels[idx]

	next := Level{Threshold: totalPlays + OpenEndedStep}
	if idx+1 < len(Levels) {
		next = Levels[idx+1]
	}

	pct := 0
	if span := next.Threshold - cur.Threshold; span > 0 {
		pct = int(math.Round(100 * float64(totalPlays-cur.Threshold) / float64(span)))
	}
	pct = min(max(pct, 0), 100)

	return LevelStatus{
		LevelIndex:         idx,
		Title:              cur.Title,
		Icon:               cur.Icon,
		CurrentThreshold:   cur.Threshold,
		NextThreshold:      next.Threshold,
		NextTitle:          next.Title,
		PercentWithinLevel: pct,
	}
}
