package models

// Task is the core planner entity. Quadrant and the AI fields are derived and
// cached on the row; everything else is caller-supplied.
type Task struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	GoalID *string `json:"goalId,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	ImportanceLevel int `json:"importanceLevel"`
	UrgencyLevel    int `json:"urgencyLevel"`
	Quadrant        int `json:"quadrant"`

	Status          TaskStatus     `json:"status"`
	TaskType        TaskType       `json:"taskType"`
	ComplexityLevel TaskComplexity `json:"complexityLevel"`

	EstimatedDurationMinutes *int   `json:"estimatedDurationMinutes,omitempty"`
	ActualDurationMinutes    *int   `json:"actualDurationMinutes,omitempty"`
	DueDate                  *int64 `json:"dueDate,omitempty"`

	ExecutiveDifficulty  int `json:"executiveDifficulty"`
	InitiationDifficulty int `json:"initiationDifficulty"`
	CompletionDifficulty int `json:"completionDifficulty"`
	RequiredEnergyLevel  int `json:"requiredEnergyLevel"`

	ProgressPercentage float64 `json:"progressPercentage"`

	AIPriorityScore *float64        `json:"aiPriorityScore,omitempty"`
	AIConfidence    *float64        `json:"aiConfidence,omitempty"`
	AIAssessment    *TaskAssessment `json:"aiAssessment,omitempty"`

	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
	StartedAt   *int64 `json:"startedAt,omitempty"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
	DeletedAt   *int64 `json:"-"`
}

// TaskAssessment is the structured result of an AI priority analysis. It
// replaces the original free-form suggestion blob with a closed set of fields
// the core actually reads.
type TaskAssessment struct {
	RecommendedQuadrant int      `json:"recommendedQuadrant,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	NextActions         []string `json:"nextActions,omitempty"`
	Fallback            bool     `json:"fallback,omitempty"`
}

// TaskView is a Task plus its derived read-only properties.
type TaskView struct {
	Task
	QuadrantName         string `json:"quadrantName"`
	IsOverdue            bool   `json:"isOverdue"`
	IsDueSoon            bool   `json:"isDueSoon"`
	BreakdownRecommended bool   `json:"breakdownRecommended"`
}

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	GoalID      *string `json:"goalId,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`

	ImportanceLevel int            `json:"importanceLevel"`
	UrgencyLevel    int            `json:"urgencyLevel"`
	TaskType        TaskType       `json:"taskType"`
	ComplexityLevel TaskComplexity `json:"complexityLevel"`

	EstimatedDurationMinutes *int   `json:"estimatedDurationMinutes,omitempty"`
	DueDate                  *int64 `json:"dueDate,omitempty"`

	ExecutiveDifficulty  int `json:"executiveDifficulty"`
	InitiationDifficulty int `json:"initiationDifficulty"`
	CompletionDifficulty int `json:"completionDifficulty"`
	RequiredEnergyLevel  int `json:"requiredEnergyLevel"`

	// Force bypasses the overwhelm guard after the caller has seen and
	// acknowledged an overwhelm rejection.
	Force bool `json:"force,omitempty"`
}

// UpdateTaskRequest is the payload for PATCH /tasks/{id}. Nil fields are left
// unchanged.
type UpdateTaskRequest struct {
	GoalID      *string `json:"goalId,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`

	ImportanceLevel *int            `json:"importanceLevel,omitempty"`
	UrgencyLevel    *int            `json:"urgencyLevel,omitempty"`
	TaskType        *TaskType       `json:"taskType,omitempty"`
	ComplexityLevel *TaskComplexity `json:"complexityLevel,omitempty"`

	EstimatedDurationMinutes *int   `json:"estimatedDurationMinutes,omitempty"`
	DueDate                  *int64 `json:"dueDate,omitempty"`

	ExecutiveDifficulty  *int `json:"executiveDifficulty,omitempty"`
	InitiationDifficulty *int `json:"initiationDifficulty,omitempty"`
	CompletionDifficulty *int `json:"completionDifficulty,omitempty"`
	RequiredEnergyLevel  *int `json:"requiredEnergyLevel,omitempty"`

	ProgressPercentage *float64 `json:"progressPercentage,omitempty"`
}

// TaskFilters holds parsed query params for GET /tasks.
type TaskFilters struct {
	Statuses     []TaskStatus
	TaskTypes    []TaskType
	Complexities []TaskComplexity
	Quadrants    []int
	GoalID       string
	DueBefore    *int64
	DueAfter     *int64
}

// ListTasksRequest holds pagination plus filters for GET /tasks.
type ListTasksRequest struct {
	Page    int
	PerPage int
	Filters TaskFilters
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListTasksResponse is returned from GET /tasks.
type ListTasksResponse struct {
	Tasks      []*TaskView `json:"tasks"`
	Pagination Pagination  `json:"pagination"`
}

// CompleteTaskRequest is the payload for POST /tasks/{id}/complete.
type CompleteTaskRequest struct {
	ActualDurationMinutes *int `json:"actualDurationMinutes,omitempty"`
}

// BreakdownRequest is the payload for POST /tasks/{id}/breakdown.
type BreakdownRequest struct {
	MaxSubtasks           int    `json:"maxSubtasks"`
	TargetDurationMinutes int    `json:"targetDurationMinutes"`
	UserContext           string `json:"userContext,omitempty"`
}

// BreakdownResponse is returned from POST /tasks/{id}/breakdown. The created
// subtasks form a linear dependency chain in the order given.
type BreakdownResponse struct {
	TaskID       string     `json:"taskId"`
	Subtasks     []*Subtask `json:"subtasks"`
	Reasoning    string     `json:"reasoning"`
	AIConfidence float64    `json:"aiConfidence"`
	Fallback     bool       `json:"fallback,omitempty"`
}
