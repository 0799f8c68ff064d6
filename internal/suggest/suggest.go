// Package suggest produces AI-assisted priority assessments and task
// breakdowns. Callers never see a hard failure from the model provider:
// every entry point has a deterministic fallback path.
package suggest

import "context"

// TaskContext carries the task attributes the model needs for an assessment
// or a breakdown. It is a plain snapshot so the package has no dependency on
// the storage layer.
type TaskContext struct {
	Title           string
	Description     string
	ImportanceLevel int
	UrgencyLevel    int
	ComplexityLevel string
	TaskType        string

	EstimatedDurationMinutes *int
	DueDate                  *int64

	ExecutiveDifficulty  int
	InitiationDifficulty int
	CompletionDifficulty int
	RequiredEnergyLevel  int

	UserEnergyLevel int
	UserContext     string
}

// Assessment is the result of a priority analysis.
type Assessment struct {
	PriorityScore       float64  `json:"priorityScore"`
	Confidence          float64  `json:"confidence"`
	RecommendedQuadrant int      `json:"recommendedQuadrant"`
	Reasoning           string   `json:"reasoning"`
	NextActions         []string `json:"nextActions"`
	Fallback            bool     `json:"-"`
}

// BreakdownStep is one proposed subtask within a breakdown.
type BreakdownStep struct {
	Title              string `json:"title"`
	Action             string `json:"action"`
	CompletionCriteria string `json:"completionCriteria"`
	EstimatedMinutes   int    `json:"estimatedMinutes"`
	DifficultyLevel    string `json:"difficultyLevel"`
	EnergyRequired     int    `json:"energyRequired"`
	FocusRequired      int    `json:"focusRequired"`
}

// Breakdown is the result of decomposing a task into steps.
type Breakdown struct {
	Steps      []BreakdownStep `json:"steps"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
	Fallback   bool            `json:"-"`
}

// BreakdownOptions bound the shape of a requested breakdown.
type BreakdownOptions struct {
	MaxSubtasks           int
	TargetDurationMinutes int
}

// Service is the AI assistance surface consumed by the task service.
type Service interface {
	AssessTask(ctx context.Context, tc TaskContext) (*Assessment, error)
	BreakdownTask(ctx context.Context, tc TaskContext, opts BreakdownOptions) (*Breakdown, error)
}
