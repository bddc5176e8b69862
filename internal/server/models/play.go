package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/common"
)

// MaxPlayImages bounds the photos attached to one play.
const MaxPlayImages = 3

// DateLayout is the calendar-date format used for PlayedOn.
const DateLayout = "2006-01-02"

// Play is a single logged session of one game.
type Play struct {
	ID              string
	UserID          string
	GameID          string
	PlayedOn        time.Time
	DurationMinutes *int
	IsVictory       bool
	Notes           string
	ImageURLs       []string
	CreatedAt       time.Time
}

// ImageFile is an uploaded photo waiting to be stored.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// PlayInput is the user-facing shape of a play: duration split in hours and
// minutes, plus any new photos.
type PlayInput struct {
	PlayedOn  time.Time
	Hours     int
	Minutes   int
	IsVictory bool
	Notes     string
	Images    []ImageFile
}

// DurationMinutes folds Hours and Minutes into the stored minutes value.
func (in PlayInput) DurationMinutes() int {
	return in.Hours*60 + in.Minutes
}

// SplitDuration is the inverse of PlayInput.DurationMinutes.
func SplitDuration(minutes int) (hours, mins int) {
	if minutes < 0 {
		return 0, 0
	}
	return minutes / 60, minutes % 60
}

// Normalize clamps the minutes component into [0,59].
func (in PlayInput) Normalize() PlayInput {
	in.Minutes = min(max(in.Minutes, 0), 59)
	return in
}

// Validate checks the input before anything is uploaded or stored.
// existingImages is the number of photos the play already has.
func (in PlayInput) Validate(maxImageBytes int64, existingImages int) error {
	if in.PlayedOn.IsZero() {
		return &common.ValidationError{Field: "played_on", Reason: "date is required"}
	}
	if in.Hours < 0 {
		return &common.ValidationError{Field: "hours", Reason: "must not be negative"}
	}

	if existingImages+len(in.Images) > MaxPlayImages {
		names := make([]string, 0, len(in.Images))
		for _, img := range in.Images {
			names = append(names, img.Name)
		}
		return &common.ValidationError{
			Field:  "images",
			Reason: fmt.Sprintf("at most %d photos per play, %d already attached", MaxPlayImages, existingImages),
			Files:  names,
		}
	}

	var bad []string
	for _, img := range in.Images {
		switch {
		case len(img.Data) == 0:
			bad = append(bad, img.Name)
		case maxImageBytes > 0 && int64(len(img.Data)) > maxImageBytes:
			bad = append(bad, img.Name)
		case img.ContentType != "" && !strings.HasPrefix(img.ContentType, "image/"):
			bad = append(bad, img.Name)
		}
	}
	if len(bad) > 0 {
		return &common.ValidationError{
			Field:  "images",
			Reason: fmt.Sprintf("each photo must be a non-empty image of at most %d bytes", maxImageBytes),
			Files:  bad,
		}
	}
	return nil
}

// Duration returns the stored duration, or nil when both parts are zero.
func (in PlayInput) Duration() *int {
	m := in.DurationMinutes()
	if m == 0 {
		return nil
	}
	return &m
}
