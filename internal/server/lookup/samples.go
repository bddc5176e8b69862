package lookup

import (
	_ "embed"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

//go:embed samples.yaml
var samplesYAML []byte

var (
	samplesOnce sync.Once
	samples     []models.SearchResult
)

// Samples returns the embedded offline catalogue. It panics if the embedded
// file is malformed, which a unit test guards against.
func Samples() []models.SearchResult {
	samplesOnce.Do(func() {
		if err := yaml.Unmarshal(samplesYAML, &samples); err != nil {
			panic("lookup: embedded samples: " + err.Error())
		}
	})
	return samples
}

// FilterSamples keeps entries whose name contains query, ignoring case.
func FilterSamples(list []models.SearchResult, query string) []models.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.SearchResult, 0)
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}
