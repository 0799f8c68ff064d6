package models

// Goal is a longer-horizon objective that owns zero or more tasks and
// milestones. Its quadrant derives from priority and target-date proximity.
type Goal struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	PriorityLevel int `json:"priorityLevel"`
	Quadrant      int `json:"quadrant"`

	Status             GoalStatus `json:"status"`
	ProgressPercentage float64    `json:"progressPercentage"`
	TargetDate         *int64     `json:"targetDate,omitempty"`

	OverwhelmRisk OverwhelmRisk `json:"overwhelmRisk"`
	AIConfidence  *float64      `json:"aiConfidence,omitempty"`

	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
	DeletedAt   *int64 `json:"-"`
}

// GoalView is a Goal plus derived properties and reporting aggregates. The
// task counts are computed from the goal's non-deleted tasks and may
// legitimately disagree with ProgressPercentage, which callers set directly.
type GoalView struct {
	Goal
	QuadrantName       string `json:"quadrantName"`
	IsOverdue          bool   `json:"isOverdue"`
	DaysUntilTarget    *int   `json:"daysUntilTarget,omitempty"`
	TaskCount          int    `json:"taskCount"`
	CompletedTaskCount int    `json:"completedTaskCount"`
	MilestoneCount     int    `json:"milestoneCount"`
}

// CreateGoalRequest is the payload for POST /goals.
type CreateGoalRequest struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	PriorityLevel int           `json:"priorityLevel"`
	TargetDate    *int64        `json:"targetDate,omitempty"`
	OverwhelmRisk OverwhelmRisk `json:"overwhelmRisk"`

	// Force bypasses the overwhelm guard after the caller has seen and
	// acknowledged an overwhelm rejection.
	Force bool `json:"force,omitempty"`
}

// UpdateGoalRequest is the payload for PATCH /goals/{id}. Nil fields are left
// unchanged.
type UpdateGoalRequest struct {
	Title         *string        `json:"title,omitempty"`
	Description   *string        `json:"description,omitempty"`
	PriorityLevel *int           `json:"priorityLevel,omitempty"`
	TargetDate    *int64         `json:"targetDate,omitempty"`
	Status        *GoalStatus    `json:"status,omitempty"`
	OverwhelmRisk *OverwhelmRisk `json:"overwhelmRisk,omitempty"`
}

// GoalFilters holds parsed query params for GET /goals.
type GoalFilters struct {
	Statuses     []GoalStatus
	Quadrants    []int
	MinPriority  *int
	MaxPriority  *int
	TargetBefore *int64
	TargetAfter  *int64
}

// ListGoalsRequest holds pagination plus filters for GET /goals.
type ListGoalsRequest struct {
	Page    int
	PerPage int
	Filters GoalFilters
}

// ListGoalsResponse is returned from GET /goals.
type ListGoalsResponse struct {
	Goals      []*GoalView `json:"goals"`
	Pagination Pagination  `json:"pagination"`
}

// UpdateProgressRequest is the payload for POST /goals/{id}/progress.
type UpdateProgressRequest struct {
	ProgressPercentage float64 `json:"progressPercentage"`
}

// Milestone is a dated checkpoint owned by a goal. Its lifetime is bounded by
// the goal's: archiving the goal cascades.
type Milestone struct {
	ID     string `json:"id"`
	GoalID string `json:"goalId"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TargetDate  int64  `json:"targetDate"`

	IsCompleted bool   `json:"isCompleted"`
	CompletedAt *int64 `json:"completedAt,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// CreateMilestoneRequest is the payload for POST /goals/{id}/milestones.
type CreateMilestoneRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  int64  `json:"targetDate"`
}

// UpdateMilestoneRequest is the payload for PATCH /milestones/{id}.
type UpdateMilestoneRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	TargetDate  *int64  `json:"targetDate,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}
