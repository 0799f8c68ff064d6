package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqrly/planner/internal/models"
)

// milestoneColumns is the canonical column list for all SELECT queries.
// Order must match scanMilestone.
const milestoneColumns = `id, goal_id, title, description, target_date,
	is_completed, completed_at, created_at, updated_at`

// MilestoneStore handles Milestone CRUD operations on SQLite.
type MilestoneStore struct {
	db *DB
}

func NewMilestoneStore(db *DB) *MilestoneStore {
	return &MilestoneStore{db: db}
}

// Insert stores a new milestone. The caller must set ID and timestamps.
func (s *MilestoneStore) Insert(m *models.Milestone) error {
	_, err := s.db.Exec(`
		INSERT INTO milestones (
			id, goal_id, title, description, target_date,
			is_completed, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.GoalID, m.Title, m.Description, m.TargetDate,
		m.IsCompleted, m.CompletedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert milestone: %w", err)
	}
	return nil
}

// GetByID fetches a single milestone by ID. Returns nil if not found.
func (s *MilestoneStore) GetByID(id string) (*models.Milestone, error) {
	m, err := scanMilestone(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM milestones WHERE id = ?`, milestoneColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ListByGoal returns all milestones of a goal ordered by target date.
func (s *MilestoneStore) ListByGoal(goalID string) ([]*models.Milestone, error) {
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT %s FROM milestones WHERE goal_id = ? ORDER BY target_date ASC, created_at ASC`, milestoneColumns),
		goalID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()
	return scanMilestones(rows)
}

// CountByGoal returns the number of milestones attached to a goal.
func (s *MilestoneStore) CountByGoal(goalID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM milestones WHERE goal_id = ?`, goalID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count milestones: %w", err)
	}
	return count, nil
}

// Update applies partial updates to a milestone. Completion state is handled
// by SetCompleted so the service controls the completed_at edge.
func (s *MilestoneStore) Update(id string, req *models.UpdateMilestoneRequest) (*models.Milestone, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, *req.TargetDate)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE milestones SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetByID(id)
}

// SetCompleted overwrites completion state. completedAt is set on the
// incomplete-to-complete edge and cleared on the reverse edge.
func (s *MilestoneStore) SetCompleted(id string, completed bool, completedAt *int64) error {
	_, err := s.db.Exec(`
		UPDATE milestones SET is_completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, completed, completedAt, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set milestone completed: %w", err)
	}
	return nil
}

// Delete removes a milestone. Reports whether a row was affected.
func (s *MilestoneStore) Delete(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM milestones WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete milestone: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanMilestone(row scanner) (*models.Milestone, error) {
	var m models.Milestone
	var description sql.NullString
	var completedAt sql.NullInt64

	err := row.Scan(
		&m.ID, &m.GoalID, &m.Title, &description, &m.TargetDate,
		&m.IsCompleted, &completedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		m.Description = description.String
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Int64
	}
	return &m, nil
}

func scanMilestones(rows *sql.Rows) ([]*models.Milestone, error) {
	var result []*models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
