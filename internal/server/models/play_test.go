package models

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayInput_DurationMinutes(t *testing.T) {
	assert.Equal(t, 95, PlayInput{Hours: 1, Minutes: 35}.DurationMinutes())
	assert.Equal(t, 0, PlayInput{}.DurationMinutes())
}

func TestSplitDuration(t *testing.T) {
	h, m := SplitDuration(125)
	assert.Equal(t, 2, h)
	assert.Equal(t, 5, m)

	h, m = SplitDuration(-3)
	assert.Zero(t, h)
	assert.Zero(t, m)
}

func TestPlayInput_Normalize(t *testing.T) {
	assert.Equal(t, 59, PlayInput{Minutes: 75}.Normalize().Minutes)
	assert.Equal(t, 0, PlayInput{Minutes: -4}.Normalize().Minutes)
	assert.Equal(t, 30, PlayInput{Minutes: 30}.Normalize().Minutes)

	in := PlayInput{Hours: 2, Minutes: 90}.Normalize()
	assert.Equal(t, 179, in.DurationMinutes())
}

func TestChallengeItem_Completed(t *testing.T) {
	assert.False(t, (&ChallengeItem{Progress: 9, Target: 10}).Completed())
	assert.True(t, (&ChallengeItem{Progress: 12, Target: 10}).Completed())
	assert.False(t, (&ChallengeItem{Progress: 3}).Completed())
}

func img(name string, size int) ImageFile {
	return ImageFile{Name: name, ContentType: "image/jpeg", Data: make([]byte, size)}
}

func TestPlayInput_Validate(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        PlayInput
		existing  int
		wantField string
		wantFiles []string
	}{
		{name: "ok", in: PlayInput{PlayedOn: day, Hours: 1, Minutes: 30, Images: []ImageFile{img("a.jpg", 10)}}},
		{name: "ok at three", in: PlayInput{PlayedOn: day, Images: []ImageFile{img("c.jpg", 1)}}, existing: 2},
		{name: "missing date", in: PlayInput{}, wantField: "played_on"},
		{name: "negative hours", in: PlayInput{PlayedOn: day, Hours: -1}, wantField: "hours"},
		{name: "minutes left to Normalize", in: PlayInput{PlayedOn: day, Minutes: 75}},
		{
			name:      "fourth photo",
			in:        PlayInput{PlayedOn: day, Images: []ImageFile{img("d.jpg", 1)}},
			existing:  3,
			wantField: "images",
			wantFiles: []string{"d.jpg"},
		},
		{
			name:      "too large",
			in:        PlayInput{PlayedOn: day, Images: []ImageFile{img("ok.jpg", 100), img("big.jpg", 101)}},
			wantField: "images",
			wantFiles: []string{"big.jpg"},
		},
		{
			name: "not an image",
			in: PlayInput{PlayedOn: day, Images: []ImageFile{
				{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")},
			}},
			wantField: "images",
			wantFiles: []string{"notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(100, tt.existing)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, common.ErrValidation))
			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantFiles, ve.Files)
		})
	}
}

func TestPlayInput_Duration(t *testing.T) {
	assert.Nil(t, PlayInput{}.Duration())
	d := PlayInput{Hours: 2}.Duration()
	require.NotNil(t, d)
	assert.Equal(t, 120, *d)
}
