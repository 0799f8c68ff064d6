package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sqrly/planner/internal/models"
)

// taskColumns is the canonical column list for all SELECT queries.
// Order must match scanTask.
const taskColumns = `id, user_id, goal_id, title, description,
	importance_level, urgency_level, quadrant,
	status, task_type, complexity_level,
	estimated_duration_minutes, actual_duration_minutes, due_date,
	executive_difficulty, initiation_difficulty, completion_difficulty,
	required_energy_level, progress_percentage,
	ai_priority_score, ai_confidence, ai_assessment,
	created_at, updated_at, started_at, completed_at, deleted_at`

// TaskStore handles Task CRUD operations on SQLite.
type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert stores a new task. The caller must set ID, quadrant and timestamps.
func (s *TaskStore) Insert(t *models.Task) error {
	var assessmentJSON *string
	if t.AIAssessment != nil {
		b, _ := json.Marshal(t.AIAssessment)
		str := string(b)
		assessmentJSON = &str
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (
			id, user_id, goal_id, title, description,
			importance_level, urgency_level, quadrant,
			status, task_type, complexity_level,
			estimated_duration_minutes, actual_duration_minutes, due_date,
			executive_difficulty, initiation_difficulty, completion_difficulty,
			required_energy_level, progress_percentage,
			ai_priority_score, ai_confidence, ai_assessment,
			created_at, updated_at, started_at, completed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.UserID, t.GoalID, t.Title, t.Description,
		t.ImportanceLevel, t.UrgencyLevel, t.Quadrant,
		string(t.Status), string(t.TaskType), string(t.ComplexityLevel),
		t.EstimatedDurationMinutes, t.ActualDurationMinutes, t.DueDate,
		t.ExecutiveDifficulty, t.InitiationDifficulty, t.CompletionDifficulty,
		t.RequiredEnergyLevel, t.ProgressPercentage,
		t.AIPriorityScore, t.AIConfidence, assessmentJSON,
		t.CreatedAt, t.UpdatedAt, t.StartedAt, t.CompletedAt, t.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID fetches a single non-deleted task by ID. Returns nil if not found.
func (s *TaskStore) GetByID(id string) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM tasks WHERE id = ? AND deleted_at IS NULL`, taskColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// Update applies partial updates to a task. Quadrant is passed separately so
// the service can recompute it whenever urgency or importance changed.
func (s *TaskStore) Update(id string, req *models.UpdateTaskRequest, quadrant *int) (*models.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.GoalID != nil {
		sets = append(sets, "goal_id = ?")
		if *req.GoalID == "" {
			args = append(args, nil)
		} else {
			args = append(args, *req.GoalID)
		}
	}
	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.ImportanceLevel != nil {
		sets = append(sets, "importance_level = ?")
		args = append(args, *req.ImportanceLevel)
	}
	if req.UrgencyLevel != nil {
		sets = append(sets, "urgency_level = ?")
		args = append(args, *req.UrgencyLevel)
	}
	if req.TaskType != nil {
		sets = append(sets, "task_type = ?")
		args = append(args, string(*req.TaskType))
	}
	if req.ComplexityLevel != nil {
		sets = append(sets, "complexity_level = ?")
		args = append(args, string(*req.ComplexityLevel))
	}
	if req.EstimatedDurationMinutes != nil {
		sets = append(sets, "estimated_duration_minutes = ?")
		args = append(args, *req.EstimatedDurationMinutes)
	}
	if req.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *req.DueDate)
	}
	if req.ExecutiveDifficulty != nil {
		sets = append(sets, "executive_difficulty = ?")
		args = append(args, *req.ExecutiveDifficulty)
	}
	if req.InitiationDifficulty != nil {
		sets = append(sets, "initiation_difficulty = ?")
		args = append(args, *req.InitiationDifficulty)
	}
	if req.CompletionDifficulty != nil {
		sets = append(sets, "completion_difficulty = ?")
		args = append(args, *req.CompletionDifficulty)
	}
	if req.RequiredEnergyLevel != nil {
		sets = append(sets, "required_energy_level = ?")
		args = append(args, *req.RequiredEnergyLevel)
	}
	if req.ProgressPercentage != nil {
		sets = append(sets, "progress_percentage = ?")
		args = append(args, *req.ProgressPercentage)
	}
	if quadrant != nil {
		sets = append(sets, "quadrant = ?")
		args = append(args, *quadrant)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ? AND deleted_at IS NULL", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetByID(id)
}

// MarkStarted moves a task to in_progress and stamps started_at.
func (s *TaskStore) MarkStarted(id string, now int64) error {
	_, err := s.db.Exec(`
		UPDATE tasks SET status = 'in_progress', started_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("start task: %w", err)
	}
	return nil
}

// MarkCompleted moves a task to completed, forces progress to 100 and stamps
// completed_at. actualMinutes is recorded when the caller supplied it.
func (s *TaskStore) MarkCompleted(id string, now int64, actualMinutes *int) error {
	sets := "status = 'completed', progress_percentage = 100.0, completed_at = ?, updated_at = ?"
	args := []any{now, now}
	if actualMinutes != nil {
		sets += ", actual_duration_minutes = ?"
		args = append(args, *actualMinutes)
	}
	args = append(args, id)

	_, err := s.db.Exec(
		fmt.Sprintf("UPDATE tasks SET %s WHERE id = ? AND deleted_at IS NULL", sets), args...)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// SetStatus overwrites a task's status without touching the lifecycle timestamps.
func (s *TaskStore) SetStatus(id string, status models.TaskStatus, now int64) error {
	_, err := s.db.Exec(`
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return nil
}

// SetAssessment stores the result of an AI priority analysis.
func (s *TaskStore) SetAssessment(id string, score, confidence float64, assessment *models.TaskAssessment) error {
	var assessmentJSON *string
	if assessment != nil {
		b, _ := json.Marshal(assessment)
		str := string(b)
		assessmentJSON = &str
	}
	_, err := s.db.Exec(`
		UPDATE tasks SET ai_priority_score = ?, ai_confidence = ?, ai_assessment = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, score, confidence, assessmentJSON, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set task assessment: %w", err)
	}
	return nil
}

// SoftDelete marks a task deleted. Reports whether a row was affected.
func (s *TaskStore) SoftDelete(id string, now int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE tasks SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DetachGoal clears goal_id on every task of the given goal. Used when a goal
// is soft-deleted, since the FK SET NULL only fires on hard deletes.
func (s *TaskStore) DetachGoal(goalID string, now int64) error {
	_, err := s.db.Exec(`
		UPDATE tasks SET goal_id = NULL, updated_at = ?
		WHERE goal_id = ? AND deleted_at IS NULL
	`, now, goalID)
	if err != nil {
		return fmt.Errorf("detach goal tasks: %w", err)
	}
	return nil
}

// CountActive returns the number of pending or in-progress tasks for a user.
func (s *TaskStore) CountActive(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks
		WHERE user_id = ? AND status IN ('pending', 'in_progress') AND deleted_at IS NULL
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	return count, nil
}

// CountActiveByGoal returns the number of pending or in-progress tasks
// attached to a goal.
func (s *TaskStore) CountActiveByGoal(goalID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks
		WHERE goal_id = ? AND status IN ('pending', 'in_progress') AND deleted_at IS NULL
	`, goalID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active goal tasks: %w", err)
	}
	return count, nil
}

// CountByGoal returns total and completed task counts for a goal.
func (s *TaskStore) CountByGoal(goalID string) (total, completed int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM tasks
		WHERE goal_id = ? AND deleted_at IS NULL
	`, goalID).Scan(&total, &completed)
	if err != nil {
		err = fmt.Errorf("count goal tasks: %w", err)
	}
	return
}

// List returns a paginated, filtered, sorted list of a user's tasks.
func (s *TaskStore) List(userID string, req *models.ListTasksRequest) ([]*models.Task, int, error) {
	conditions := []string{"user_id = ?", "deleted_at IS NULL"}
	args := []any{userID}

	f := req.Filters
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.TaskTypes) > 0 {
		placeholders := make([]string, len(f.TaskTypes))
		for i, tt := range f.TaskTypes {
			placeholders[i] = "?"
			args = append(args, string(tt))
		}
		conditions = append(conditions, fmt.Sprintf("task_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.Complexities) > 0 {
		placeholders := make([]string, len(f.Complexities))
		for i, c := range f.Complexities {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		conditions = append(conditions, fmt.Sprintf("complexity_level IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.Quadrants) > 0 {
		placeholders := make([]string, len(f.Quadrants))
		for i, q := range f.Quadrants {
			placeholders[i] = "?"
			args = append(args, q)
		}
		conditions = append(conditions, fmt.Sprintf("quadrant IN (%s)", strings.Join(placeholders, ",")))
	}
	if f.GoalID != "" {
		conditions = append(conditions, "goal_id = ?")
		args = append(args, f.GoalID)
	}
	if f.DueBefore != nil {
		conditions = append(conditions, "due_date IS NOT NULL AND due_date <= ?")
		args = append(args, *f.DueBefore)
	}
	if f.DueAfter != nil {
		conditions = append(conditions, "due_date IS NOT NULL AND due_date >= ?")
		args = append(args, *f.DueAfter)
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks %s", whereClause)
	var total int
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	perPage := req.PerPage
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM tasks %s
		ORDER BY quadrant ASC, due_date IS NULL, due_date ASC, created_at DESC
		LIMIT ? OFFSET ?
	`, taskColumns, whereClause)

	queryArgs := append(args, perPage, offset)
	rows, err := s.db.Query(selectQuery, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan path.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var goalID, description sql.NullString
	var estimatedMin, actualMin sql.NullInt64
	var dueDate sql.NullInt64
	var aiScore, aiConfidence sql.NullFloat64
	var assessmentJSON sql.NullString
	var startedAt, completedAt, deletedAt sql.NullInt64

	err := row.Scan(
		&t.ID, &t.UserID, &goalID, &t.Title, &description,
		&t.ImportanceLevel, &t.UrgencyLevel, &t.Quadrant,
		&t.Status, &t.TaskType, &t.ComplexityLevel,
		&estimatedMin, &actualMin, &dueDate,
		&t.ExecutiveDifficulty, &t.InitiationDifficulty, &t.CompletionDifficulty,
		&t.RequiredEnergyLevel, &t.ProgressPercentage,
		&aiScore, &aiConfidence, &assessmentJSON,
		&t.CreatedAt, &t.UpdatedAt, &startedAt, &completedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if goalID.Valid {
		t.GoalID = &goalID.String
	}
	if description.Valid {
		t.Description = description.String
	}
	if estimatedMin.Valid {
		v := int(estimatedMin.Int64)
		t.EstimatedDurationMinutes = &v
	}
	if actualMin.Valid {
		v := int(actualMin.Int64)
		t.ActualDurationMinutes = &v
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Int64
	}
	if aiScore.Valid {
		t.AIPriorityScore = &aiScore.Float64
	}
	if aiConfidence.Valid {
		t.AIConfidence = &aiConfidence.Float64
	}
	if assessmentJSON.Valid {
		var a models.TaskAssessment
		if json.Unmarshal([]byte(assessmentJSON.String), &a) == nil {
			t.AIAssessment = &a
		}
	}
	if startedAt.Valid {
		t.StartedAt = &startedAt.Int64
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Int64
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Int64
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	var result []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
