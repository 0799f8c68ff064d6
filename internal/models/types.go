package models

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusBlocked    TaskStatus = "blocked"
)

var ValidTaskStatuses = map[TaskStatus]bool{
	TaskStatusPending:    true,
	TaskStatusInProgress: true,
	TaskStatusCompleted:  true,
	TaskStatusCancelled:  true,
	TaskStatusBlocked:    true,
}

func (s TaskStatus) IsValid() bool { return ValidTaskStatuses[s] }

// IsTerminal reports whether no further lifecycle actions apply.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// TaskComplexity buckets tasks by expected effort.
type TaskComplexity string

const (
	ComplexityMicro   TaskComplexity = "micro"   // 2-5 minutes
	ComplexitySimple  TaskComplexity = "simple"  // 5-15 minutes
	ComplexityMedium  TaskComplexity = "medium"  // 15-45 minutes
	ComplexityComplex TaskComplexity = "complex" // 45+ minutes
)

var ValidComplexities = map[TaskComplexity]bool{
	ComplexityMicro:   true,
	ComplexitySimple:  true,
	ComplexityMedium:  true,
	ComplexityComplex: true,
}

func (c TaskComplexity) IsValid() bool { return ValidComplexities[c] }

// TaskType classifies what area of life a task belongs to.
type TaskType string

const (
	TaskTypeWork     TaskType = "work"
	TaskTypePersonal TaskType = "personal"
	TaskTypeHealth   TaskType = "health"
	TaskTypeLearning TaskType = "learning"
	TaskTypeAdmin    TaskType = "admin"
	TaskTypeCreative TaskType = "creative"
)

var ValidTaskTypes = map[TaskType]bool{
	TaskTypeWork:     true,
	TaskTypePersonal: true,
	TaskTypeHealth:   true,
	TaskTypeLearning: true,
	TaskTypeAdmin:    true,
	TaskTypeCreative: true,
}

func (t TaskType) IsValid() bool { return ValidTaskTypes[t] }

// SubtaskStatus is the lifecycle state of a subtask.
type SubtaskStatus string

const (
	SubtaskStatusPending    SubtaskStatus = "pending"
	SubtaskStatusInProgress SubtaskStatus = "in_progress"
	SubtaskStatusCompleted  SubtaskStatus = "completed"
	SubtaskStatusSkipped    SubtaskStatus = "skipped"
)

var ValidSubtaskStatuses = map[SubtaskStatus]bool{
	SubtaskStatusPending:    true,
	SubtaskStatusInProgress: true,
	SubtaskStatusCompleted:  true,
	SubtaskStatusSkipped:    true,
}

func (s SubtaskStatus) IsValid() bool { return ValidSubtaskStatuses[s] }

// IsTerminal reports whether the subtask has finished its lifecycle.
func (s SubtaskStatus) IsTerminal() bool {
	return s == SubtaskStatusCompleted || s == SubtaskStatusSkipped
}

// SubtaskDifficulty buckets subtasks by cognitive load.
type SubtaskDifficulty string

const (
	DifficultyEasy   SubtaskDifficulty = "easy"
	DifficultyMedium SubtaskDifficulty = "medium"
	DifficultyHard   SubtaskDifficulty = "hard"
)

var ValidDifficulties = map[SubtaskDifficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

func (d SubtaskDifficulty) IsValid() bool { return ValidDifficulties[d] }

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusArchived  GoalStatus = "archived"
)

var ValidGoalStatuses = map[GoalStatus]bool{
	GoalStatusActive:    true,
	GoalStatusCompleted: true,
	GoalStatusPaused:    true,
	GoalStatusArchived:  true,
}

func (s GoalStatus) IsValid() bool { return ValidGoalStatuses[s] }

// OverwhelmRisk is the assessed risk of a goal overwhelming the user.
type OverwhelmRisk string

const (
	RiskLow    OverwhelmRisk = "low"
	RiskMedium OverwhelmRisk = "medium"
	RiskHigh   OverwhelmRisk = "high"
)

var ValidOverwhelmRisks = map[OverwhelmRisk]bool{
	RiskLow:    true,
	RiskMedium: true,
	RiskHigh:   true,
}

func (r OverwhelmRisk) IsValid() bool { return ValidOverwhelmRisks[r] }

// QuadrantNames maps the Eisenhower-style quadrant id to its display name.
var QuadrantNames = map[int]string{
	1: "Urgent & Important",
	2: "Not Urgent & Important",
	3: "Urgent & Not Important",
	4: "Not Urgent & Not Important",
}

// QuadrantName returns the display name for a quadrant id, or "Unassigned".
func QuadrantName(q int) string {
	if name, ok := QuadrantNames[q]; ok {
		return name
	}
	return "Unassigned"
}
