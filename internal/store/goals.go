package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqrly/planner/internal/models"
)

// goalColumns is the canonical column list for all SELECT queries.
// Order must match scanGoal.
const goalColumns = `id, user_id, title, description,
	priority_level, quadrant, status, progress_percentage, target_date,
	overwhelm_risk, ai_confidence,
	created_at, updated_at, completed_at, deleted_at`

// GoalStore handles Goal CRUD operations on SQLite.
type GoalStore struct {
	db *DB
}

func NewGoalStore(db *DB) *GoalStore {
	return &GoalStore{db: db}
}

// Insert stores a new goal. The caller must set ID, quadrant and timestamps.
func (s *GoalStore) Insert(g *models.Goal) error {
	_, err := s.db.Exec(`
		INSERT INTO goals (
			id, user_id, title, description,
			priority_level, quadrant, status, progress_percentage, target_date,
			overwhelm_risk, ai_confidence,
			created_at, updated_at, completed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID, g.UserID, g.Title, g.Description,
		g.PriorityLevel, g.Quadrant, string(g.Status), g.ProgressPercentage, g.TargetDate,
		string(g.OverwhelmRisk), g.AIConfidence,
		g.CreatedAt, g.UpdatedAt, g.CompletedAt, g.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetByID fetches a single non-deleted goal by ID. Returns nil if not found.
func (s *GoalStore) GetByID(id string) (*models.Goal, error) {
	g, err := scanGoal(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM goals WHERE id = ? AND deleted_at IS NULL`, goalColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// Update applies partial updates to a goal. Quadrant is passed separately so
// the service can recompute it whenever priority or target date changed.
func (s *GoalStore) Update(id string, req *models.UpdateGoalRequest, quadrant *int) (*models.Goal, error) {
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
	if req.PriorityLevel != nil {
		sets = append(sets, "priority_level = ?")
		args = append(args, *req.PriorityLevel)
	}
	if req.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, *req.TargetDate)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*req.Status))
	}
	if req.OverwhelmRisk != nil {
		sets = append(sets, "overwhelm_risk = ?")
		args = append(args, string(*req.OverwhelmRisk))
	}
	if quadrant != nil {
		sets = append(sets, "quadrant = ?")
		args = append(args, *quadrant)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE goals SET %s WHERE id = ? AND deleted_at IS NULL", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetByID(id)
}

// SetProgress overwrites a goal's progress percentage.
func (s *GoalStore) SetProgress(id string, progress float64, now int64) error {
	_, err := s.db.Exec(`
		UPDATE goals SET progress_percentage = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, progress, now, id)
	if err != nil {
		return fmt.Errorf("set goal progress: %w", err)
	}
	return nil
}

// MarkCompleted moves a goal to completed. The status write is unconditional
// so a reactivated goal can complete again; completed_at keeps its original
// value once stamped.
func (s *GoalStore) MarkCompleted(id string, now int64) error {
	_, err := s.db.Exec(`
		UPDATE goals SET status = 'completed', completed_at = COALESCE(completed_at, ?), updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("complete goal: %w", err)
	}
	return nil
}

// SetStatus overwrites a goal's status.
func (s *GoalStore) SetStatus(id string, status models.GoalStatus, now int64) error {
	_, err := s.db.Exec(`
		UPDATE goals SET status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("set goal status: %w", err)
	}
	return nil
}

// SoftDelete marks a goal deleted. Reports whether a row was affected.
func (s *GoalStore) SoftDelete(id string, now int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE goals SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("delete goal: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountActive returns the number of active goals for a user.
func (s *GoalStore) CountActive(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM goals
		WHERE user_id = ? AND status = 'active' AND deleted_at IS NULL
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active goals: %w", err)
	}
	return count, nil
}

// List returns a paginated, filtered, sorted list of a user's goals.
func (s *GoalStore) List(userID string, req *models.ListGoalsRequest) ([]*models.Goal, int, error) {
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
	if len(f.Quadrants) > 0 {
		placeholders := make([]string, len(f.Quadrants))
		for i, q := range f.Quadrants {
			placeholders[i] = "?"
			args = append(args, q)
		}
		conditions = append(conditions, fmt.Sprintf("quadrant IN (%s)", strings.Join(placeholders, ",")))
	}
	if f.MinPriority != nil {
		conditions = append(conditions, "priority_level >= ?")
		args = append(args, *f.MinPriority)
	}
	if f.MaxPriority != nil {
		conditions = append(conditions, "priority_level <= ?")
		args = append(args, *f.MaxPriority)
	}
	if f.TargetBefore != nil {
		conditions = append(conditions, "target_date IS NOT NULL AND target_date <= ?")
		args = append(args, *f.TargetBefore)
	}
	if f.TargetAfter != nil {
		conditions = append(conditions, "target_date IS NOT NULL AND target_date >= ?")
		args = append(args, *f.TargetAfter)
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM goals %s", whereClause)
	var total int
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count goals: %w", err)
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
		FROM goals %s
		ORDER BY quadrant ASC, target_date IS NULL, target_date ASC, created_at DESC
		LIMIT ? OFFSET ?
	`, goalColumns, whereClause)

	queryArgs := append(args, perPage, offset)
	rows, err := s.db.Query(selectQuery, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals, err := scanGoals(rows)
	if err != nil {
		return nil, 0, err
	}
	return goals, total, nil
}

func scanGoal(row scanner) (*models.Goal, error) {
	var g models.Goal
	var description sql.NullString
	var targetDate sql.NullInt64
	var aiConfidence sql.NullFloat64
	var completedAt, deletedAt sql.NullInt64

	err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &description,
		&g.PriorityLevel, &g.Quadrant, &g.Status, &g.ProgressPercentage, &targetDate,
		&g.OverwhelmRisk, &aiConfidence,
		&g.CreatedAt, &g.UpdatedAt, &completedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		g.Description = description.String
	}
	if targetDate.Valid {
		g.TargetDate = &targetDate.Int64
	}
	if aiConfidence.Valid {
		g.AIConfidence = &aiConfidence.Float64
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Int64
	}
	if deletedAt.Valid {
		g.DeletedAt = &deletedAt.Int64
	}
	return &g, nil
}

func scanGoals(rows *sql.Rows) ([]*models.Goal, error) {
	var result []*models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}
