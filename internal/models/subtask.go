package models

// Subtask is a step within a task. DependsOn may only reference sibling
// subtasks of the same parent task; a subtask can start only once every
// prerequisite is completed.
type Subtask struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`

	Title              string `json:"title"`
	Action             string `json:"action,omitempty"`
	CompletionCriteria string `json:"completionCriteria,omitempty"`

	SequenceOrder int      `json:"sequenceOrder"`
	DependsOn     []string `json:"dependsOn"`

	Status          SubtaskStatus     `json:"status"`
	DifficultyLevel SubtaskDifficulty `json:"difficultyLevel"`

	EstimatedMinutes int  `json:"estimatedMinutes"`
	ActualMinutes    *int `json:"actualMinutes,omitempty"`

	EnergyRequired int `json:"energyRequired"`
	FocusRequired  int `json:"focusRequired"`

	AIGenerated  bool     `json:"aiGenerated"`
	AIConfidence *float64 `json:"aiConfidence,omitempty"`

	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
	StartedAt   *int64 `json:"startedAt,omitempty"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
}

// SubtaskView is a Subtask plus its derived dependency state.
type SubtaskView struct {
	Subtask
	CanStart  bool `json:"canStart"`
	IsBlocked bool `json:"isBlocked"`
}

// CreateSubtaskRequest is the payload for POST /tasks/{id}/subtasks.
type CreateSubtaskRequest struct {
	Title              string   `json:"title"`
	Action             string   `json:"action"`
	CompletionCriteria string   `json:"completionCriteria"`
	SequenceOrder      int      `json:"sequenceOrder"`
	DependsOn          []string `json:"dependsOn"`

	DifficultyLevel  SubtaskDifficulty `json:"difficultyLevel"`
	EstimatedMinutes int               `json:"estimatedMinutes"`
	EnergyRequired   int               `json:"energyRequired"`
	FocusRequired    int               `json:"focusRequired"`
}

// UpdateSubtaskRequest is the payload for PATCH /subtasks/{id}. Nil fields are
// left unchanged.
type UpdateSubtaskRequest struct {
	Title              *string   `json:"title,omitempty"`
	Action             *string   `json:"action,omitempty"`
	CompletionCriteria *string   `json:"completionCriteria,omitempty"`
	SequenceOrder      *int      `json:"sequenceOrder,omitempty"`
	DependsOn          *[]string `json:"dependsOn,omitempty"`

	DifficultyLevel  *SubtaskDifficulty `json:"difficultyLevel,omitempty"`
	EstimatedMinutes *int               `json:"estimatedMinutes,omitempty"`
	EnergyRequired   *int               `json:"energyRequired,omitempty"`
	FocusRequired    *int               `json:"focusRequired,omitempty"`
}

// SubtaskActionRequest is the payload for POST /subtasks/{id}/action.
type SubtaskActionRequest struct {
	Action        string `json:"action"`
	ActualMinutes *int   `json:"actualMinutes,omitempty"`
}
