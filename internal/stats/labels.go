package stats

import "math"

func RatingText(rating int) string {
	switch rating {
	case 3:
		return "Epic"
	case 2:
		return "Good"
	case 1:
		return "Okay"
	default:
		return "Bad"
	}
}

// CrowdText labels an average crowd level after rounding to the nearest index.
func CrowdText(avg float64) string {
	switch roundIndex(avg) {
	case 3:
		return "packed"
	case 2:
		return "busy"
	case 1:
		return "light"
	default:
		return "empty"
	}
}

var heightTexts = [...]string{
	"flat",
	"ankle high",
	"knee high",
	"thigh high",
	"waist high",
	"chest high",
	"head high",
	"overhead",
	"well overhead",
	"double overhead",
}

var heightFeet = [...]string{
	"0ft",
	"1/2ft",
	"1ft",
	"1-2ft",
	"2-3ft",
	"3-4ft",
	"4-5ft",
	"5-7ft",
	"8-10ft",
	"10-15ft",
}

func HeightText(height int) string {
	if height < 0 || height >= len(heightTexts) {
		return heightTexts[0]
	}
	return heightTexts[height]
}

func HeightFeet(height int) string {
	if height < 0 || height >= len(heightFeet) {
		return heightFeet[0]
	}
	return heightFeet[height]
}

func roundIndex(v float64) int {
	return int(math.Round(v))
}
