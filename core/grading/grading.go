// Package grading computes final grades and remarks from term scores.
// Results are persisted whenever scores are entered or edited; they are never derived at read time.
package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/trezcool/gradebook/core"
)

// PassingGrade is the lowest final grade that earns a PASSED remark.
const PassingGrade = 75.0

type Remark string

const (
	Passed Remark = "PASSED"
	Failed Remark = "FAILED"
)

// Scores holds the three term scores of a grading period.
type Scores struct {
	Prelim  float64
	Midterm float64
	Finals  float64
}

// FinalGrade averages midterm & finals for Tertiary students, and all three terms otherwise.
func FinalGrade(lvl core.EducationLevel, s Scores) float64 {
	if lvl == core.Tertiary {
		return (s.Midterm + s.Finals) / 2
	}
	return (s.Prelim + s.Midterm + s.Finals) / 3
}

// RemarkFor returns PASSED when final >= PassingGrade.
func RemarkFor(final float64) Remark {
	if final >= PassingGrade {
		return Passed
	}
	return Failed
}

// Compute returns the final grade and its remark.
func Compute(lvl core.EducationLevel, s Scores) (float64, Remark) {
	final := FinalGrade(lvl, s)
	return final, RemarkFor(final)
}

// ParseScore parses a submitted score; absent or invalid input counts as 0.
func ParseScore(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// PassingRate is the percentage of passed grades rounded to 2 decimals; 0 without grades.
func PassingRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(passed) / float64(total) * 100)
}

func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
