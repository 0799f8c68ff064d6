// Package goals implements goal and milestone CRUD, target-date driven
// quadrant classification, progress tracking with automatic completion, and
// the capped-active-goals overwhelm guard.
package goals

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqrly/planner/internal/classify"
	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/planner"
	"github.com/sqrly/planner/internal/store"
)

// Service handles goal and milestone operations.
type Service struct {
	goals      *store.GoalStore
	tasks      *store.TaskStore
	milestones *store.MilestoneStore
	users      *store.UserStore
	logger     *slog.Logger
}

func NewService(
	goals *store.GoalStore,
	tasks *store.TaskStore,
	milestones *store.MilestoneStore,
	users *store.UserStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		goals:      goals,
		tasks:      tasks,
		milestones: milestones,
		users:      users,
		logger:     logger,
	}
}

// goalOverwhelmLimit derives the active-goal cap from the user's task
// threshold. Goals are heavier commitments than tasks, so the cap is a third
// of the threshold with a floor of 3.
func goalOverwhelmLimit(threshold int) int {
	limit := threshold / 3
	if limit < 3 {
		limit = 3
	}
	return limit
}

// Create validates and stores a new goal under the overwhelm guard.
func (s *Service) Create(userID string, req *models.CreateGoalRequest) (*models.GoalView, error) {
	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	priority := req.PriorityLevel
	if priority == 0 {
		priority = 5
	}
	if priority < 1 || priority > 10 {
		return nil, &planner.ValidationError{Field: "priorityLevel", Reason: "must be between 1 and 10"}
	}

	risk := req.OverwhelmRisk
	if risk == "" {
		risk = models.RiskMedium
	}
	if !risk.IsValid() {
		return nil, &planner.ValidationError{Field: "overwhelmRisk", Reason: fmt.Sprintf("unknown risk %q", risk)}
	}

	if !req.Force {
		active, err := s.goals.CountActive(userID)
		if err != nil {
			return nil, err
		}
		limit := goalOverwhelmLimit(user.OverwhelmThreshold)
		if active >= limit {
			return nil, &planner.OverwhelmError{ActiveCount: active, Threshold: limit}
		}
	}

	now := time.Now()
	g := &models.Goal{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		PriorityLevel: priority,
		Quadrant:      classify.GoalQuadrant(priority, req.TargetDate, now),
		Status:        models.GoalStatusActive,
		TargetDate:    req.TargetDate,
		OverwhelmRisk: risk,
		CreatedAt:     now.Unix(),
		UpdatedAt:     now.Unix(),
	}
	if err := s.goals.Insert(g); err != nil {
		return nil, err
	}

	s.logger.Info("goal created", "goal_id", g.ID, "user_id", userID, "quadrant", g.Quadrant)
	return s.Get(userID, g.ID)
}

// Get fetches a goal with its derived properties and aggregates.
func (s *Service) Get(userID, id string) (*models.GoalView, error) {
	g, err := s.requireGoal(userID, id)
	if err != nil {
		return nil, err
	}
	return s.toView(g)
}

// List returns the user's goals, quadrant-ordered, with pagination metadata.
func (s *Service) List(userID string, req *models.ListGoalsRequest) (*models.ListGoalsResponse, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}

	goals, total, err := s.goals.List(userID, req)
	if err != nil {
		return nil, err
	}

	views := make([]*models.GoalView, 0, len(goals))
	for _, g := range goals {
		v, err := s.toView(g)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	perPage := req.PerPage
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	return &models.ListGoalsResponse{
		Goals: views,
		Pagination: models.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: (total + perPage - 1) / perPage,
		},
	}, nil
}

// Update applies partial updates. Quadrant is recomputed whenever priority or
// target date changed.
func (s *Service) Update(userID, id string, req *models.UpdateGoalRequest) (*models.GoalView, error) {
	g, err := s.requireGoal(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.PriorityLevel != nil && (*req.PriorityLevel < 1 || *req.PriorityLevel > 10) {
		return nil, &planner.ValidationError{Field: "priorityLevel", Reason: "must be between 1 and 10"}
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, &planner.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *req.Status)}
	}
	if req.OverwhelmRisk != nil && !req.OverwhelmRisk.IsValid() {
		return nil, &planner.ValidationError{Field: "overwhelmRisk", Reason: fmt.Sprintf("unknown risk %q", *req.OverwhelmRisk)}
	}

	var quadrant *int
	if req.PriorityLevel != nil || req.TargetDate != nil {
		priority := g.PriorityLevel
		if req.PriorityLevel != nil {
			priority = *req.PriorityLevel
		}
		target := g.TargetDate
		if req.TargetDate != nil {
			target = req.TargetDate
		}
		q := classify.GoalQuadrant(priority, target, time.Now())
		quadrant = &q
	}

	updated, err := s.goals.Update(id, req, quadrant)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &planner.NotFoundError{Resource: "goal", ID: id}
	}

	// A status write to completed stamps completed_at exactly once.
	if req.Status != nil && *req.Status == models.GoalStatusCompleted {
		if err := s.goals.MarkCompleted(id, time.Now().Unix()); err != nil {
			return nil, err
		}
	}
	return s.Get(userID, id)
}

// UpdateProgress overwrites a goal's progress, clamping out-of-range values
// to [0, 100]. Reaching 100 while active completes the goal; the completion
// timestamp is stamped only on the first crossing.
func (s *Service) UpdateProgress(userID, id string, req *models.UpdateProgressRequest) (*models.GoalView, error) {
	g, err := s.requireGoal(userID, id)
	if err != nil {
		return nil, err
	}
	p := req.ProgressPercentage
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	now := time.Now().Unix()
	if err := s.goals.SetProgress(id, p, now); err != nil {
		return nil, err
	}
	if p >= 100 && g.Status == models.GoalStatusActive {
		if err := s.goals.MarkCompleted(id, now); err != nil {
			return nil, err
		}
		if g.CompletedAt == nil {
			s.logger.Info("goal completed", "goal_id", id, "user_id", userID)
		}
	}
	return s.Get(userID, id)
}

// Archive moves a goal to archived. Archived goals keep their tasks and
// milestones but drop out of the active-goal count.
func (s *Service) Archive(userID, id string) (*models.GoalView, error) {
	g, err := s.requireGoal(userID, id)
	if err != nil {
		return nil, err
	}
	if g.Status == models.GoalStatusArchived {
		return s.toView(g)
	}
	if err := s.goals.SetStatus(id, models.GoalStatusArchived, time.Now().Unix()); err != nil {
		return nil, err
	}
	s.logger.Info("goal archived", "goal_id", id, "user_id", userID)
	return s.Get(userID, id)
}

// Delete soft-deletes a goal and detaches its tasks, which live on without a
// goal. Milestones disappear with the goal.
func (s *Service) Delete(userID, id string) error {
	if _, err := s.requireGoal(userID, id); err != nil {
		return err
	}
	now := time.Now().Unix()
	ok, err := s.goals.SoftDelete(id, now)
	if err != nil {
		return err
	}
	if !ok {
		return &planner.NotFoundError{Resource: "goal", ID: id}
	}
	if err := s.tasks.DetachGoal(id, now); err != nil {
		return err
	}
	s.logger.Info("goal deleted", "goal_id", id, "user_id", userID)
	return nil
}

// CreateMilestone adds a dated checkpoint to a goal.
func (s *Service) CreateMilestone(userID, goalID string, req *models.CreateMilestoneRequest) (*models.Milestone, error) {
	if _, err := s.requireGoal(userID, goalID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.TargetDate <= 0 {
		return nil, &planner.ValidationError{Field: "targetDate", Reason: "must be set"}
	}

	now := time.Now().Unix()
	m := &models.Milestone{
		ID:          uuid.New().String(),
		GoalID:      goalID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TargetDate:  req.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.milestones.Insert(m); err != nil {
		return nil, err
	}
	s.logger.Info("milestone created", "milestone_id", m.ID, "goal_id", goalID)
	return m, nil
}

// ListMilestones returns a goal's milestones ordered by target date.
func (s *Service) ListMilestones(userID, goalID string) ([]*models.Milestone, error) {
	if _, err := s.requireGoal(userID, goalID); err != nil {
		return nil, err
	}
	return s.milestones.ListByGoal(goalID)
}

// UpdateMilestone applies partial updates. completed_at moves only on
// completion edges: stamped when is_completed flips to true, cleared when it
// flips back to false.
func (s *Service) UpdateMilestone(userID, id string, req *models.UpdateMilestoneRequest) (*models.Milestone, error) {
	m, err := s.requireMilestone(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.TargetDate != nil && *req.TargetDate <= 0 {
		return nil, &planner.ValidationError{Field: "targetDate", Reason: "must be set"}
	}

	updated, err := s.milestones.Update(id, req)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &planner.NotFoundError{Resource: "milestone", ID: id}
	}

	if req.IsCompleted != nil && *req.IsCompleted != m.IsCompleted {
		var completedAt *int64
		if *req.IsCompleted {
			now := time.Now().Unix()
			completedAt = &now
		}
		if err := s.milestones.SetCompleted(id, *req.IsCompleted, completedAt); err != nil {
			return nil, err
		}
		return s.milestones.GetByID(id)
	}
	return updated, nil
}

// DeleteMilestone removes a milestone.
func (s *Service) DeleteMilestone(userID, id string) error {
	if _, err := s.requireMilestone(userID, id); err != nil {
		return err
	}
	ok, err := s.milestones.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return &planner.NotFoundError{Resource: "milestone", ID: id}
	}
	return nil
}

func (s *Service) requireUser(userID string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &planner.NotFoundError{Resource: "user", ID: userID}
	}
	return user, nil
}

func (s *Service) requireGoal(userID, id string) (*models.Goal, error) {
	g, err := s.goals.GetByID(id)
	if err != nil {
		return nil, err
	}
	if g == nil || g.UserID != userID {
		return nil, &planner.NotFoundError{Resource: "goal", ID: id}
	}
	return g, nil
}

func (s *Service) requireMilestone(userID, id string) (*models.Milestone, error) {
	m, err := s.milestones.GetByID(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &planner.NotFoundError{Resource: "milestone", ID: id}
	}
	if _, err := s.requireGoal(userID, m.GoalID); err != nil {
		return nil, &planner.NotFoundError{Resource: "milestone", ID: id}
	}
	return m, nil
}

func (s *Service) toView(g *models.Goal) (*models.GoalView, error) {
	taskCount, completedCount, err := s.tasks.CountByGoal(g.ID)
	if err != nil {
		return nil, err
	}
	milestoneCount, err := s.milestones.CountByGoal(g.ID)
	if err != nil {
		return nil, err
	}

	v := &models.GoalView{
		Goal:               *g,
		QuadrantName:       models.QuadrantName(g.Quadrant),
		TaskCount:          taskCount,
		CompletedTaskCount: completedCount,
		MilestoneCount:     milestoneCount,
	}
	if g.TargetDate != nil {
		now := time.Now()
		target := time.Unix(*g.TargetDate, 0)
		days := int(target.Sub(now).Hours() / 24)
		v.DaysUntilTarget = &days
		v.IsOverdue = g.Status == models.GoalStatusActive && target.Before(now)
	}
	return v, nil
}
