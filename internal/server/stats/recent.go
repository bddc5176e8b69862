package stats

import (
	"slices"
	"sort"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// ComputeRecentHistory returns at most n plays, most recent date first.
// It sorts explicitly instead of trusting the caller's order; plays on the
// same date keep reverse input order, so the latest logged comes first.
func ComputeRecentHistory(plays []*models.Play, n int) []*models.Play {
	if n <= 0 || len(plays) == 0 {
		return []*models.Play{}
	}

	sorted := slices.Clone(plays)
	slices.Reverse(sorted)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlayedOn.After(sorted[j].PlayedOn)
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
