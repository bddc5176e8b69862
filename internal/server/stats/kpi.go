package stats

import (
	"math"
	"sort"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// DefaultDurationMinutes stands in for plays logged without a duration.
// It is an approximation carried over for parity with existing figures,
// not a measured value.
const DefaultDurationMinutes = 45

// KPIs are the headline numbers of the dashboard.
type KPIs struct {
	TotalPlays     int `json:"total_plays"`
	Wins           int `json:"wins"`
	WinRatePercent int `json:"win_rate_percent"`
	TotalHours     int `json:"total_hours"`
	HIndex         int `json:"h_index"`
}

// ComputeKPIs aggregates plays. An empty list yields all zeros.
func ComputeKPIs(plays []*models.Play) KPIs {
	k := KPIs{TotalPlays: len(plays)}

	minutes := 0
	for _, p := range plays {
		if p.IsVictory {
			k.Wins++
		}
		minutes += durationOrDefault(p)
	}

	k.WinRatePercent = percent(k.Wins, k.TotalPlays)
	k.TotalHours = int(math.Round(float64(minutes) / 60))
	k.HIndex = HIndex(plays)
	return k
}

// HIndex is the largest k such that k distinct games were each played at
// least k times.
func HIndex(plays []*models.Play) int {
	perGame := make(map[string]int)
	for _, p := range plays {
		perGame[p.GameID]++
	}

	counts := make([]int, 0, len(perGame))
	for _, c := range perGame {
		counts = append(counts, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	h := 0
	for i, c := range counts {
		if c < i+1 {
			break
		}
		h = i + 1
	}
	return h
}

func durationOrDefault(p *models.Play) int {
	if p.DurationMinutes == nil {
		return DefaultDurationMinutes
	}
	return *p.DurationMinutes
}

// percent returns round(100*part/total), or 0 when total is 0.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
