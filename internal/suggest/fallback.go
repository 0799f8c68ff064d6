package suggest

import (
	"context"
	"time"

	"github.com/sqrly/planner/internal/classify"
	"github.com/sqrly/planner/internal/models"
)

// FallbackService implements Service using only the deterministic rules.
// It is wired in when no provider API key is configured.
type FallbackService struct{}

func (FallbackService) AssessTask(_ context.Context, tc TaskContext) (*Assessment, error) {
	return FallbackAssessment(tc, time.Now()), nil
}

func (FallbackService) BreakdownTask(_ context.Context, tc TaskContext, opts BreakdownOptions) (*Breakdown, error) {
	return FallbackBreakdown(tc, opts), nil
}

// fallbackConfidence is reported when the provider is unavailable and the
// assessment comes from the scoring rules alone.
const fallbackConfidence = 0.5

// FallbackAssessment derives an assessment from the classification rules
// without calling the provider. Confidence is capped at 0.5 so callers can
// tell heuristic results from real model output.
func FallbackAssessment(tc TaskContext, now time.Time) *Assessment {
	score := classify.PriorityScore(classify.PriorityInput{
		ImportanceLevel:      tc.ImportanceLevel,
		UrgencyLevel:         tc.UrgencyLevel,
		DueDate:              tc.DueDate,
		ComplexityLevel:      models.TaskComplexity(tc.ComplexityLevel),
		InitiationDifficulty: tc.InitiationDifficulty,
	}, now)

	return &Assessment{
		PriorityScore:       score,
		Confidence:          fallbackConfidence,
		RecommendedQuadrant: classify.Quadrant(tc.UrgencyLevel, tc.ImportanceLevel),
		Reasoning:           "Scored from urgency, importance and due date; AI assistance was unavailable.",
		NextActions:         []string{"Pick the first small step and start a short timer."},
		Fallback:            true,
	}
}

// FallbackBreakdown returns a single generic starter step when the provider
// is unavailable. One low-barrier step is enough to get moving; a real
// decomposition can be requested again once the provider is back.
func FallbackBreakdown(tc TaskContext, opts BreakdownOptions) *Breakdown {
	estimated := 30
	if tc.EstimatedDurationMinutes != nil && *tc.EstimatedDurationMinutes > 0 {
		estimated = *tc.EstimatedDurationMinutes
	}

	target := opts.TargetDurationMinutes
	if target <= 0 {
		target = 15
	}

	step := BreakdownStep{
		Title:              "Get started on: " + tc.Title,
		Action:             "Spend a few minutes setting up and doing the first obvious piece.",
		CompletionCriteria: "You have made a visible dent in the task.",
		EstimatedMinutes:   min(estimated, target),
		DifficultyLevel:    string(models.DifficultyEasy),
		EnergyRequired:     3,
		FocusRequired:      4,
	}

	return &Breakdown{
		Steps:      []BreakdownStep{step},
		Reasoning:  "Generic starter step; AI assistance was unavailable.",
		Confidence: 0.3,
		Fallback:   true,
	}
}
