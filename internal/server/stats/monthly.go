package stats

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

// MonthPoint is one bucket of the monthly activity chart.
type MonthPoint struct {
	MonthKey        string `json:"month_key"`
	Label           string `json:"label"`
	Count           int    `json:"count"`
	CumulativeCount int    `json:"cumulative_count"`
}

// ComputeMonthlySeries buckets plays by "YYYY-MM" of their date, ascending,
// with a running total. Months without plays are omitted rather than
// zero-filled.
func ComputeMonthlySeries(plays []*models.Play) []MonthPoint {
	counts := make(map[string]int)
	labels := make(map[string]string)
	for _, p := range plays {
		key := p.PlayedOn.Format("2006-01")
		counts[key]++
		if _, ok := labels[key]; !ok {
			labels[key] = fmt.Sprintf("%s %d", p.PlayedOn.Month().String()[:3], p.PlayedOn.Year())
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// zero-padded ISO year-month sorts lexicographically
	sort.Strings(keys)

	series := make([]MonthPoint, 0, len(keys))
	running := 0
	for _, k := range keys {
		running += counts[k]
		series = append(series, MonthPoint{
			MonthKey:        k,
			Label:           labels[k],
			Count:           counts[k],
			CumulativeCount: running,
		})
	}
	return series
}
