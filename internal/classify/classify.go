// Package classify implements the urgency/importance quadrant rule and the
// priority scoring used to order tasks. All functions are pure; callers inject
// "now" so due-date bonuses are reproducible.
package classify

import (
	"time"

	"github.com/sqrly/planner/internal/models"
)

// Quadrant maps urgency and importance (both 1-10, validated by the caller) to
// an Eisenhower-style quadrant. The tie-break is at 7: a level of 7 counts as
// high.
func Quadrant(urgency, importance int) int {
	switch {
	case urgency >= 7 && importance >= 7:
		return 1
	case urgency < 7 && importance >= 7:
		return 2
	case urgency >= 7 && importance < 7:
		return 3
	default:
		return 4
	}
}

// PriorityInput carries the task fields that feed the priority score.
type PriorityInput struct {
	ImportanceLevel      int
	UrgencyLevel         int
	DueDate              *int64 // unix seconds
	ComplexityLevel      models.TaskComplexity
	InitiationDifficulty int
}

// PriorityScore computes a 1.0-10.0 sort score. Base is the mean of importance
// and urgency; a due date within 24 hours adds 2, within 7 days adds 1;
// simpler tasks get a small momentum boost and complex ones a penalty; tasks
// that are easy to begin score slightly higher.
func PriorityScore(in PriorityInput, now time.Time) float64 {
	score := float64(in.ImportanceLevel+in.UrgencyLevel) / 2

	if in.DueDate != nil {
		hoursUntilDue := time.Unix(*in.DueDate, 0).Sub(now).Hours()
		if hoursUntilDue < 24 {
			score += 2
		} else if hoursUntilDue < 168 {
			score += 1
		}
	}

	switch in.ComplexityLevel {
	case models.ComplexityMicro:
		score += 0.5
	case models.ComplexitySimple:
		score += 0.2
	case models.ComplexityComplex:
		score -= 0.5
	}

	if in.InitiationDifficulty <= 3 {
		score += 0.5
	} else if in.InitiationDifficulty >= 8 {
		score -= 0.5
	}

	return clamp(score, 1.0, 10.0)
}

// GoalUrgency derives an urgency level from target-date proximity. Goals with
// no target date sit in the middle of the scale.
func GoalUrgency(targetDate *int64, now time.Time) int {
	if targetDate == nil {
		return 5
	}
	days := int(time.Unix(*targetDate, 0).Sub(now).Hours() / 24)
	switch {
	case days <= 7:
		return 9
	case days <= 30:
		return 7
	case days <= 90:
		return 5
	default:
		return 3
	}
}

// GoalQuadrant classifies a goal using derived urgency and priority as
// importance.
func GoalQuadrant(priorityLevel int, targetDate *int64, now time.Time) int {
	return Quadrant(GoalUrgency(targetDate, now), priorityLevel)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
