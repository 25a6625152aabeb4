// Package decay estimates how fresh a concept is in the learner's memory from
// the time of its last correct review.
package decay

import (
	"math"
	"strings"
	"time"

	"github.com/abhisek/certprep/internal/apperr"
)

const (
	// HalfLifeDays is the number of days after which strength halves.
	// A week without review lands a concept in the warning band.
	HalfLifeDays = 4.0

	// MaxStrength is the strength immediately after a correct review.
	MaxStrength = 100

	// HealthyThreshold is the lowest strength still shown as healthy.
	HealthyThreshold = 70

	// CriticalThreshold is the strength below which a concept is critically decayed.
	CriticalThreshold = 40
)

// Band is the visual class token for a strength value.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// timestampLayouts are the ISO-8601 forms accepted for review timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CalculateDecayedStrength parses an ISO-8601 review timestamp and returns the
// decayed strength at now. An unparseable timestamp returns an *apperr.InvalidInput
// rather than 0, because 0 is also a legitimate fully decayed value.
func CalculateDecayedStrength(lastReviewedISO string, now time.Time) (int, error) {
	reviewed, err := ParseTimestamp(lastReviewedISO)
	if err != nil {
		return 0, err
	}
	return Strength(reviewed, now), nil
}

// ParseTimestamp parses the review timestamp forms accepted by CalculateDecayedStrength.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Invalid("last_reviewed", "timestamp is empty")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &apperr.InvalidInput{
		Field:  "last_reviewed",
		Reason: "not an ISO-8601 timestamp",
		Err:    lastErr,
	}
}

// Strength returns the 0-100 strength of a concept last reviewed at
// lastReviewed. Future review times count as zero elapsed time.
func Strength(lastReviewed, now time.Time) int {
	elapsedDays := now.Sub(lastReviewed).Hours() / 24.0
	if elapsedDays <= 0 {
		return MaxStrength
	}
	s := float64(MaxStrength) * math.Pow(0.5, elapsedDays/HalfLifeDays)
	return int(math.Round(s))
}

// StrengthColor maps a strength to its display band.
func StrengthColor(strength int) Band {
	switch {
	case strength >= HealthyThreshold:
		return BandHealthy
	case strength >= CriticalThreshold:
		return BandWarning
	default:
		return BandCritical
	}
}

// StrengthLabel returns a warning for critically decayed strengths and nil otherwise.
func StrengthLabel(strength int) *string {
	if strength >= CriticalThreshold {
		return nil
	}
	label := "Fading fast, review this concept soon"
	if strength == 0 {
		label = "Forgotten, relearn this concept"
	}
	return &label
}
