package quiz

import "math"

type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

type Summary struct {
	Score      int  `json:"score"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Band       Band `json:"band"`
}

// Summarize derives the percentage and band of a final tally.
func Summarize(score, total int) Summary {
	sum := Summary{Score: score, Total: total, Band: BandLow}
	if total <= 0 {
		return sum
	}
	sum.Percentage = int(math.Round(100 * float64(score) / float64(total)))
	switch {
	case sum.Percentage >= 80:
		sum.Band = BandHigh
	case sum.Percentage >= 60:
		sum.Band = BandMedium
	}
	return sum
}

func (s Summary) Headline() string {
	switch s.Band {
	case BandHigh:
		return "Excellent!"
	case BandMedium:
		return "Good Job!"
	default:
		return "Keep Practicing!"
	}
}

// Passed is the threshold the result screen colours green.
func (s Summary) Passed() bool { return s.Percentage >= 60 }
