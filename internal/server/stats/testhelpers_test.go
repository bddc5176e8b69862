package stats

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func minutes(m int) *int { return &m }

// playsPerGame builds n plays for each game, all on the same date.
func playsPerGame(counts map[string]int) []*models.Play {
	var out []*models.Play
	for g, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, &models.Play{
				ID:       fmt.Sprintf("%s-%d", g, i),
				GameID:   g,
				PlayedOn: day("2025-01-01"),
			})
		}
	}
	return out
}
