package grading

import "math"

// LetterGrades is the closed set a grading result may report.
var LetterGrades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}

func ValidLetterGrade(s string) bool {
	for _, g := range LetterGrades {
		if g == s {
			return true
		}
	}
	return false
}

// LetterForPercentage applies the plain bands: A 90+, B 80+, C 70+, D 60+, else F.
func LetterForPercentage(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

// RoundPct rounds half away from zero to a whole percentage.
func RoundPct(v float64) int {
	return int(math.Round(v))
}
