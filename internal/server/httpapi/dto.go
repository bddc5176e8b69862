package httpapi

import (
	"time"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

type gameDTO struct {
	ID            string   `json:"id"`
	ExternalID    string   `json:"external_id"`
	Name          string   `json:"name"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	YearPublished *int     `json:"year_published,omitempty"`
	PlayingTime   *int     `json:"playing_time,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Complexity    *float64 `json:"complexity,omitempty"`
}

type itemDTO struct {
	GameID      string   `json:"game_id"`
	Progress    int      `json:"progress"`
	Target      int      `json:"target"`
	MeepleColor string   `json:"meeple_color"`
	Completed   bool     `json:"completed"`
	Game        *gameDTO `json:"game,omitempty"`
}

type playDTO struct {
	ID              string    `json:"id"`
	GameID          string    `json:"game_id"`
	PlayedOn        string    `json:"played_on"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Hours           int       `json:"hours"`
	Minutes         int       `json:"minutes"`
	IsVictory       bool      `json:"is_victory"`
	Notes           string    `json:"notes"`
	ImageURLs       []string  `json:"image_urls"`
	CreatedAt       time.Time `json:"created_at"`
}

func toGameDTO(g *models.Game) *gameDTO {
	if g == nil {
		return nil
	}
	return &gameDTO{
		ID:            g.ID,
		ExternalID:    g.ExternalID,
		Name:          g.Name,
		ThumbnailURL:  g.ThumbnailURL,
		ImageURL:      g.ImageURL,
		Description:   g.Description,
		YearPublished: g.YearPublished,
		PlayingTime:   g.PlayingTime,
		Rating:        g.Rating,
		Complexity:    g.Complexity,
	}
}

func toItemDTO(it *models.ChallengeItem) itemDTO {
	return itemDTO{
		GameID:      it.GameID,
		Progress:    it.Progress,
		Target:      it.Target,
		MeepleColor: it.MeepleColor,
		Completed:   it.Completed(),
		Game:        toGameDTO(it.Game),
	}
}

func toItemDTOs(items []*models.ChallengeItem) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	return out
}

func toPlayDTO(p *models.Play) playDTO {
	d := playDTO{
		ID:              p.ID,
		GameID:          p.GameID,
		PlayedOn:        p.PlayedOn.Format(models.DateLayout),
		DurationMinutes: p.DurationMinutes,
		IsVictory:       p.IsVictory,
		Notes:           p.Notes,
		ImageURLs:       p.ImageURLs,
		CreatedAt:       p.CreatedAt,
	}
	if d.ImageURLs == nil {
		d.ImageURLs = []string{}
	}
	if p.DurationMinutes != nil {
		d.Hours, d.Minutes = models.SplitDuration(*p.DurationMinutes)
	}
	return d
}

func toPlayDTOs(plays []*models.Play) []playDTO {
	out := make([]playDTO, 0, len(plays))
	for _, p := range plays {
		out = append(out, toPlayDTO(p))
	}
	return out
}
