package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingText(t *testing.T) {
	assert.Equal(t, "Epic", RatingText(3))
	assert.Equal(t, "Good", RatingText(2))
	assert.Equal(t, "Okay", RatingText(1))
	assert.Equal(t, "Bad", RatingText(0))
	assert.Equal(t, "Bad", RatingText(7))
}

func TestCrowdTextRounds(t *testing.T) {
	tests := map[float64]string{
		0:    "empty",
		0.49: "empty",
		0.5:  "light",
		1.4:  "light",
		2.2:  "busy",
		2.5:  "packed",
		3:    "packed",
	}
	for avg, want := range tests {
		assert.Equal(t, want, CrowdText(avg), "avg %.2f", avg)
	}
}

func TestHeightLabels(t *testing.T) {
	tests := []struct {
		height int
		text   string
		feet   string
	}{
		{0, "flat", "0ft"},
		{1, "ankle high", "1/2ft"},
		{2, "knee high", "1ft"},
		{3, "thigh high", "1-2ft"},
		{4, "waist high", "2-3ft"},
		{5, "chest high", "3-4ft"},
		{6, "head high", "4-5ft"},
		{7, "overhead", "5-7ft"},
		{8, "well overhead", "8-10ft"},
		{9, "double overhead", "10-15ft"},
		{10, "flat", "0ft"},
		{-1, "flat", "0ft"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.text, HeightText(tt.height))
		assert.Equal(t, tt.feet, HeightFeet(tt.height))
	}
}
