// Package stats summarizes surf reports for a spot or a user's history.
// Everything here is pure and safe to call from concurrent readers.
package stats

import "time"

// Rating bounds: 0 bad, 1 okay, 2 good, 3 epic.
const (
	MinRating = 0
	MaxRating = 3
)

// Sample is the part of a report the aggregator needs.
type Sample struct {
	Rating    int
	Height    int
	Crowd     int
	Timestamp time.Time
}

// Distribution counts reports per rating bucket.
type Distribution struct {
	Bad  int `json:"bad"`
	Okay int `json:"okay"`
	Good int `json:"good"`
	Epic int `json:"epic"`
}

func (d Distribution) Total() int {
	return d.Bad + d.Okay + d.Good + d.Epic
}

// Count returns the bucket for rating, or 0 for a rating outside 0..3.
func (d Distribution) Count(rating int) int {
	switch rating {
	case 0:
		return d.Bad
	case 1:
		return d.Okay
	case 2:
		return d.Good
	case 3:
		return d.Epic
	}
	return 0
}

// NewDistribution buckets samples by rating. Out-of-range ratings are ignored.
func NewDistribution(samples []Sample) Distribution {
	var d Distribution
	for _, s := range samples {
		switch s.Rating {
		case 0:
			d.Bad++
		case 1:
			d.Okay++
		case 2:
			d.Good++
		case 3:
			d.Epic++
		}
	}
	return d
}

// DominantRating is the rating with the highest count. Ties go to the higher
// rating; an empty distribution yields 0.
func DominantRating(d Distribution) int {
	best, bestCount := MinRating, 0
	for r := MaxRating; r >= MinRating; r-- {
		if c := d.Count(r); c > bestCount {
			best, bestCount = r, c
		}
	}
	return best
}

// AverageHeight is the mean height index, 0 when there are no samples.
func AverageHeight(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range samples {
		sum += s.Height
	}
	return float64(sum) / float64(len(samples))
}

// AverageCrowd is the mean crowd index, 0 when there are no samples.
func AverageCrowd(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range samples {
		sum += s.Crowd
	}
	return float64(sum) / float64(len(samples))
}

// Summary is a snapshot of a set of reports, ready to render.
type Summary struct {
	Distribution   Distribution `json:"distribution"`
	Total          int          `json:"total"`
	DominantRating int          `json:"dominant_rating"`
	RatingText     string       `json:"rating_text"`
	AverageHeight  float64      `json:"average_height"`
	HeightText     string       `json:"height_text"`
	HeightFeet     string       `json:"height_feet"`
	AverageCrowd   float64      `json:"average_crowd"`
	CrowdText      string       `json:"crowd_text"`
	LatestReportAt *time.Time   `json:"latest_report_at"`
}

// Summarize computes every aggregate in one pass over the input.
func Summarize(samples []Sample) Summary {
	dist := NewDistribution(samples)
	dominant := DominantRating(dist)
	avgHeight := AverageHeight(samples)
	avgCrowd := AverageCrowd(samples)
	heightIdx := roundIndex(avgHeight)

	s := Summary{
		Distribution:   dist,
		Total:          dist.Total(),
		DominantRating: dominant,
		RatingText:     RatingText(dominant),
		AverageHeight:  avgHeight,
		HeightText:     HeightText(heightIdx),
		HeightFeet:     HeightFeet(heightIdx),
		AverageCrowd:   avgCrowd,
		CrowdText:      CrowdText(avgCrowd),
	}

	for _, smp := range samples {
		if smp.Timestamp.IsZero() {
			continue
		}
		if s.LatestReportAt == nil || smp.Timestamp.After(*s.LatestReportAt) {
			ts := smp.Timestamp
			s.LatestReportAt = &ts
		}
	}
	return s
}
