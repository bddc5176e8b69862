// Package models defines the play tracker's persisted entities.
package models

import "time"

// Game is a catalogue entry shared by every user. ExternalID is the
// board-game database id and the deduplication key.
type Game struct {
	ID           string
	ExternalID   string
	Name         string
	ThumbnailURL string
	ImageURL     string
	Description  string

	// Pointers are nil when the metadata service did not provide a value.
	YearPublished *int
	PlayingTime   *int
	Rating        *float64
	Complexity    *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchResult is one hit of a free-text metadata search.
type SearchResult struct {
	ExternalID    string `json:"external_id" yaml:"external_id"`
	Name          string `json:"name" yaml:"name"`
	YearPublished *int   `json:"year_published,omitempty" yaml:"year_published"`
}

// GameDetails is the full metadata document for one external id.
type GameDetails struct {
	ExternalID    string
	Name          string
	ThumbnailURL  string
	ImageURL      string
	Description   string
	YearPublished *int
	MinPlayers    *int
	MaxPlayers    *int
	MinAge        *int
	PlayingTime   *int
	Rating        *float64
	Complexity    *float64
}

// ToGame maps details to a Game row, keeping unknown fields unset.
func (d *GameDetails) ToGame() *Game {
	return &Game{
		ExternalID:    d.ExternalID,
		Name:          d.Name,
		ThumbnailURL:  d.ThumbnailURL,
		ImageURL:      d.ImageURL,
		Description:   d.Description,
		YearPublished: d.YearPublished,
		PlayingTime:   d.PlayingTime,
		Rating:        d.Rating,
		Complexity:    d.Complexity,
	}
}
