package classify

import (
	"testing"
	"time"

	"github.com/sqrly/planner/internal/models"
)

func TestQuadrant(t *testing.T) {
	cases := []struct {
		name       string
		urgency    int
		importance int
		want       int
	}{
		{"high both", 8, 9, 1},
		{"boundary both", 7, 7, 1},
		{"important not urgent", 3, 8, 2},
		{"boundary importance only", 6, 7, 2},
		{"urgent not important", 9, 4, 3},
		{"boundary urgency only", 7, 6, 3},
		{"low both", 2, 3, 4},
		{"just below boundary", 6, 6, 4},
		{"minimums", 1, 1, 4},
		{"maximums", 10, 10, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Quadrant(tc.urgency, tc.importance); got != tc.want {
				t.Fatalf("Quadrant(%d, %d) = %d, want %d", tc.urgency, tc.importance, got, tc.want)
			}
		})
	}
}

func TestPriorityScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("base is mean of importance and urgency", func(t *testing.T) {
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      6,
			UrgencyLevel:         4,
			ComplexityLevel:      models.ComplexityMedium,
			InitiationDifficulty: 5,
		}, now)
		if got != 5.0 {
			t.Fatalf("expected 5.0, got %f", got)
		}
	})

	t.Run("due within 24h adds 2", func(t *testing.T) {
		due := now.Add(6 * time.Hour).Unix()
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      5,
			UrgencyLevel:         5,
			DueDate:              &due,
			ComplexityLevel:      models.ComplexityMedium,
			InitiationDifficulty: 5,
		}, now)
		if got != 7.0 {
			t.Fatalf("expected 7.0, got %f", got)
		}
	})

	t.Run("due within a week adds 1", func(t *testing.T) {
		due := now.Add(3 * 24 * time.Hour).Unix()
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      5,
			UrgencyLevel:         5,
			DueDate:              &due,
			ComplexityLevel:      models.ComplexityMedium,
			InitiationDifficulty: 5,
		}, now)
		if got != 6.0 {
			t.Fatalf("expected 6.0, got %f", got)
		}
	})

	t.Run("micro complexity and easy initiation boost", func(t *testing.T) {
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      5,
			UrgencyLevel:         5,
			ComplexityLevel:      models.ComplexityMicro,
			InitiationDifficulty: 2,
		}, now)
		if got != 6.0 {
			t.Fatalf("expected 6.0, got %f", got)
		}
	})

	t.Run("complex and hard to start penalized", func(t *testing.T) {
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      5,
			UrgencyLevel:         5,
			ComplexityLevel:      models.ComplexityComplex,
			InitiationDifficulty: 9,
		}, now)
		if got != 4.0 {
			t.Fatalf("expected 4.0, got %f", got)
		}
	})

	t.Run("clamped to 10", func(t *testing.T) {
		due := now.Add(time.Hour).Unix()
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      10,
			UrgencyLevel:         10,
			DueDate:              &due,
			ComplexityLevel:      models.ComplexityMicro,
			InitiationDifficulty: 1,
		}, now)
		if got != 10.0 {
			t.Fatalf("expected 10.0, got %f", got)
		}
	})

	t.Run("clamped to 1", func(t *testing.T) {
		got := PriorityScore(PriorityInput{
			ImportanceLevel:      1,
			UrgencyLevel:         1,
			ComplexityLevel:      models.ComplexityComplex,
			InitiationDifficulty: 10,
		}, now)
		if got != 1.0 {
			t.Fatalf("expected 1.0, got %f", got)
		}
	})
}

func TestGoalUrgency(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	days := func(n int) *int64 {
		ts := now.Add(time.Duration(n) * 24 * time.Hour).Unix()
		return &ts
	}

	cases := []struct {
		name   string
		target *int64
		want   int
	}{
		{"no target", nil, 5},
		{"this week", days(3), 9},
		{"this month", days(20), 7},
		{"this quarter", days(60), 5},
		{"far out", days(200), 3},
		{"already past", days(-2), 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GoalUrgency(tc.target, now); got != tc.want {
				t.Fatalf("GoalUrgency = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGoalQuadrant(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	soon := now.Add(2 * 24 * time.Hour).Unix()

	if got := GoalQuadrant(8, &soon, now); got != 1 {
		t.Fatalf("high priority, near target: expected quadrant 1, got %d", got)
	}
	if got := GoalQuadrant(8, nil, now); got != 2 {
		t.Fatalf("high priority, no target: expected quadrant 2, got %d", got)
	}
	if got := GoalQuadrant(3, &soon, now); got != 3 {
		t.Fatalf("low priority, near target: expected quadrant 3, got %d", got)
	}
	if got := GoalQuadrant(3, nil, now); got != 4 {
		t.Fatalf("low priority, no target: expected quadrant 4, got %d", got)
	}
}
