package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sqrly/planner/internal/models"
)

// subtaskColumns is the canonical column list for all SELECT queries.
// Order must match scanSubtask.
const subtaskColumns = `id, task_id, title, action, completion_criteria,
	sequence_order, depends_on, status, difficulty_level,
	estimated_minutes, actual_minutes, energy_required, focus_required,
	ai_generated, ai_confidence,
	created_at, updated_at, started_at, completed_at`

// SubtaskStore handles Subtask CRUD operations on SQLite.
type SubtaskStore struct {
	db *DB
}

func NewSubtaskStore(db *DB) *SubtaskStore {
	return &SubtaskStore{db: db}
}

// Insert stores a new subtask. The caller must set ID and timestamps.
func (s *SubtaskStore) Insert(st *models.Subtask) error {
	dependsJSON, _ := json.Marshal(st.DependsOn)

	_, err := s.db.Exec(`
		INSERT INTO subtasks (
			id, task_id, title, action, completion_criteria,
			sequence_order, depends_on, status, difficulty_level,
			estimated_minutes, actual_minutes, energy_required, focus_required,
			ai_generated, ai_confidence,
			created_at, updated_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID, st.TaskID, st.Title, st.Action, st.CompletionCriteria,
		st.SequenceOrder, string(dependsJSON), string(st.Status), string(st.DifficultyLevel),
		st.EstimatedMinutes, st.ActualMinutes, st.EnergyRequired, st.FocusRequired,
		st.AIGenerated, st.AIConfidence,
		st.CreatedAt, st.UpdatedAt, st.StartedAt, st.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

// GetByID fetches a single subtask by ID. Returns nil if not found.
func (s *SubtaskStore) GetByID(id string) (*models.Subtask, error) {
	st, err := scanSubtask(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM subtasks WHERE id = ?`, subtaskColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return st, err
}

// ListByTask returns all subtasks of a task in sequence order.
func (s *SubtaskStore) ListByTask(taskID string) ([]*models.Subtask, error) {
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT %s FROM subtasks WHERE task_id = ? ORDER BY sequence_order ASC, created_at ASC`, subtaskColumns),
		taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()
	return scanSubtasks(rows)
}

// MaxSequenceOrder returns the highest sequence_order among a task's subtasks,
// or 0 when the task has none.
func (s *SubtaskStore) MaxSequenceOrder(taskID string) (int, error) {
	var max int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(sequence_order), 0) FROM subtasks WHERE task_id = ?`, taskID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sequence order: %w", err)
	}
	return max, nil
}

// Update applies partial updates to a subtask.
func (s *SubtaskStore) Update(id string, req *models.UpdateSubtaskRequest) (*models.Subtask, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Action != nil {
		sets = append(sets, "action = ?")
		args = append(args, *req.Action)
	}
	if req.CompletionCriteria != nil {
		sets = append(sets, "completion_criteria = ?")
		args = append(args, *req.CompletionCriteria)
	}
	if req.SequenceOrder != nil {
		sets = append(sets, "sequence_order = ?")
		args = append(args, *req.SequenceOrder)
	}
	if req.DependsOn != nil {
		dependsJSON, _ := json.Marshal(*req.DependsOn)
		sets = append(sets, "depends_on = ?")
		args = append(args, string(dependsJSON))
	}
	if req.DifficultyLevel != nil {
		sets = append(sets, "difficulty_level = ?")
		args = append(args, string(*req.DifficultyLevel))
	}
	if req.EstimatedMinutes != nil {
		sets = append(sets, "estimated_minutes = ?")
		args = append(args, *req.EstimatedMinutes)
	}
	if req.EnergyRequired != nil {
		sets = append(sets, "energy_required = ?")
		args = append(args, *req.EnergyRequired)
	}
	if req.FocusRequired != nil {
		sets = append(sets, "focus_required = ?")
		args = append(args, *req.FocusRequired)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE subtasks SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetByID(id)
}

// MarkStarted moves a subtask to in_progress and stamps started_at.
func (s *SubtaskStore) MarkStarted(id string, now int64) error {
	_, err := s.db.Exec(`
		UPDATE subtasks SET status = 'in_progress', started_at = ?, updated_at = ?
		WHERE id = ?
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("start subtask: %w", err)
	}
	return nil
}

// MarkCompleted moves a subtask to completed and stamps completed_at.
// actualMinutes is recorded when the caller supplied it.
func (s *SubtaskStore) MarkCompleted(id string, now int64, actualMinutes *int) error {
	sets := "status = 'completed', completed_at = ?, updated_at = ?"
	args := []any{now, now}
	if actualMinutes != nil {
		sets += ", actual_minutes = ?"
		args = append(args, *actualMinutes)
	}
	args = append(args, id)

	_, err := s.db.Exec(
		fmt.Sprintf("UPDATE subtasks SET %s WHERE id = ?", sets), args...)
	if err != nil {
		return fmt.Errorf("complete subtask: %w", err)
	}
	return nil
}

// MarkSkipped moves a subtask to skipped. Skipped subtasks never satisfy
// dependencies, so downstream subtasks stay blocked.
func (s *SubtaskStore) MarkSkipped(id string, now int64) error {
	_, err := s.db.Exec(`
		UPDATE subtasks SET status = 'skipped', updated_at = ?
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("skip subtask: %w", err)
	}
	return nil
}

// Delete removes a subtask. Reports whether a row was affected.
func (s *SubtaskStore) Delete(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete subtask: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanSubtask(row scanner) (*models.Subtask, error) {
	var st models.Subtask
	var action, criteria sql.NullString
	var dependsJSON sql.NullString
	var actualMin sql.NullInt64
	var aiConfidence sql.NullFloat64
	var startedAt, completedAt sql.NullInt64

	err := row.Scan(
		&st.ID, &st.TaskID, &st.Title, &action, &criteria,
		&st.SequenceOrder, &dependsJSON, &st.Status, &st.DifficultyLevel,
		&st.EstimatedMinutes, &actualMin, &st.EnergyRequired, &st.FocusRequired,
		&st.AIGenerated, &aiConfidence,
		&st.CreatedAt, &st.UpdatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if action.Valid {
		st.Action = action.String
	}
	if criteria.Valid {
		st.CompletionCriteria = criteria.String
	}
	st.DependsOn = []string{}
	if dependsJSON.Valid {
		json.Unmarshal([]byte(dependsJSON.String), &st.DependsOn)
	}
	if actualMin.Valid {
		v := int(actualMin.Int64)
		st.ActualMinutes = &v
	}
	if aiConfidence.Valid {
		st.AIConfidence = &aiConfidence.Float64
	}
	if startedAt.Valid {
		st.StartedAt = &startedAt.Int64
	}
	if completedAt.Valid {
		st.CompletedAt = &completedAt.Int64
	}
	return &st, nil
}

func scanSubtasks(rows *sql.Rows) ([]*models.Subtask, error) {
	var result []*models.Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
