package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamples_Load(t *testing.T) {
	s := Samples()
	require.NotEmpty(t, s)
	for _, r := range s {
		assert.NotEmpty(t, r.ExternalID)
		assert.NotEmpty(t, r.Name)
	}
}

func TestFilterSamples_CaseInsensitiveSubstring(t *testing.T) {
	got := FilterSamples(Samples(), "wONDers")
	require.Len(t, got, 2)
	assert.Equal(t, "7 Wonders", got[0].Name)
	assert.Equal(t, "7 Wonders Duel", got[1].Name)
}
