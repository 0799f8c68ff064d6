// Package tasks implements the task lifecycle: creation under overwhelm and
// energy guards, quadrant classification, AI-assisted prioritization and
// breakdown, and the pending/in_progress/completed state machine.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqrly/planner/internal/classify"
	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/planner"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/suggest"
)

// dueSoonWindow is how far ahead a due date counts as "due soon".
const dueSoonWindow = 24 * time.Hour

// breakdownDurationThreshold is the estimated duration above which a
// breakdown is recommended.
const breakdownDurationThreshold = 45

// Service handles task operations.
type Service struct {
	tasks    *store.TaskStore
	subtasks *store.SubtaskStore
	goals    *store.GoalStore
	users    *store.UserStore
	ai       suggest.Service
	logger   *slog.Logger
}

func NewService(
	tasks *store.TaskStore,
	subtasks *store.SubtaskStore,
	goals *store.GoalStore,
	users *store.UserStore,
	ai suggest.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		tasks:    tasks,
		subtasks: subtasks,
		goals:    goals,
		users:    users,
		ai:       ai,
		logger:   logger,
	}
}

// Create validates and stores a new task, then runs the AI priority
// assessment. The overwhelm and energy guards reject the write unless the
// caller set Force after seeing the rejection.
func (s *Service) Create(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.TaskView, error) {
	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	if req.GoalID != nil {
		goal, err := s.goals.GetByID(*req.GoalID)
		if err != nil {
			return nil, err
		}
		if goal == nil || goal.UserID != userID {
			return nil, &planner.NotFoundError{Resource: "goal", ID: *req.GoalID}
		}
	}

	if !req.Force {
		active, err := s.tasks.CountActive(userID)
		if err != nil {
			return nil, err
		}
		if active >= user.OverwhelmThreshold {
			return nil, &planner.OverwhelmError{ActiveCount: active, Threshold: user.OverwhelmThreshold}
		}
		if req.RequiredEnergyLevel > user.CurrentEnergyLevel+2 {
			return nil, &planner.EnergyMismatchError{
				Required:  req.RequiredEnergyLevel,
				Available: user.CurrentEnergyLevel,
			}
		}
	}

	now := time.Now().Unix()
	t := &models.Task{
		ID:                       uuid.New().String(),
		UserID:                   userID,
		GoalID:                   req.GoalID,
		Title:                    strings.TrimSpace(req.Title),
		Description:              req.Description,
		ImportanceLevel:          req.ImportanceLevel,
		UrgencyLevel:             req.UrgencyLevel,
		Quadrant:                 classify.Quadrant(req.UrgencyLevel, req.ImportanceLevel),
		Status:                   models.TaskStatusPending,
		TaskType:                 req.TaskType,
		ComplexityLevel:          req.ComplexityLevel,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		DueDate:                  req.DueDate,
		ExecutiveDifficulty:      req.ExecutiveDifficulty,
		InitiationDifficulty:     req.InitiationDifficulty,
		CompletionDifficulty:     req.CompletionDifficulty,
		RequiredEnergyLevel:      req.RequiredEnergyLevel,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.tasks.Insert(t); err != nil {
		return nil, err
	}

	assessment, err := s.ai.AssessTask(ctx, s.taskContext(t, user))
	if err != nil {
		return nil, fmt.Errorf("assess task: %w", err)
	}
	if err := s.tasks.SetAssessment(t.ID, assessment.PriorityScore, assessment.Confidence, &models.TaskAssessment{
		RecommendedQuadrant: assessment.RecommendedQuadrant,
		Reasoning:           assessment.Reasoning,
		NextActions:         assessment.NextActions,
		Fallback:            assessment.Fallback,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", t.ID,
		"user_id", userID,
		"quadrant", t.Quadrant,
		"ai_fallback", assessment.Fallback)

	return s.Get(userID, t.ID)
}

// Get fetches a task with its derived properties.
func (s *Service) Get(userID, id string) (*models.TaskView, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	return s.toView(t), nil
}

// List returns the user's tasks, quadrant-ordered, with pagination metadata.
func (s *Service) List(userID string, req *models.ListTasksRequest) (*models.ListTasksResponse, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}

	tasks, total, err := s.tasks.List(userID, req)
	if err != nil {
		return nil, err
	}

	views := make([]*models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, s.toView(t))
	}

	perPage := req.PerPage
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	return &models.ListTasksResponse{
		Tasks: views,
		Pagination: models.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: (total + perPage - 1) / perPage,
		},
	}, nil
}

// Update applies partial updates. Quadrant is recomputed whenever urgency or
// importance changed, and a change to any field the priority assessment reads
// re-runs the assessment.
func (s *Service) Update(ctx context.Context, userID, id string, req *models.UpdateTaskRequest) (*models.TaskView, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	if req.GoalID != nil && *req.GoalID != "" {
		goal, err := s.goals.GetByID(*req.GoalID)
		if err != nil {
			return nil, err
		}
		if goal == nil || goal.UserID != userID {
			return nil, &planner.NotFoundError{Resource: "goal", ID: *req.GoalID}
		}
	}

	var quadrant *int
	if req.UrgencyLevel != nil || req.ImportanceLevel != nil {
		urgency := t.UrgencyLevel
		if req.UrgencyLevel != nil {
			urgency = *req.UrgencyLevel
		}
		importance := t.ImportanceLevel
		if req.ImportanceLevel != nil {
			importance = *req.ImportanceLevel
		}
		q := classify.Quadrant(urgency, importance)
		quadrant = &q
	}

	updated, err := s.tasks.Update(id, req, quadrant)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &planner.NotFoundError{Resource: "task", ID: id}
	}

	if assessmentInputChanged(req) && !updated.Status.IsTerminal() {
		user, err := s.requireUser(userID)
		if err != nil {
			return nil, err
		}
		assessment, err := s.ai.AssessTask(ctx, s.taskContext(updated, user))
		if err != nil {
			return nil, fmt.Errorf("assess task: %w", err)
		}
		if err := s.tasks.SetAssessment(id, assessment.PriorityScore, assessment.Confidence, &models.TaskAssessment{
			RecommendedQuadrant: assessment.RecommendedQuadrant,
			Reasoning:           assessment.Reasoning,
			NextActions:         assessment.NextActions,
			Fallback:            assessment.Fallback,
		}); err != nil {
			return nil, err
		}
		return s.Get(userID, id)
	}
	return s.toView(updated), nil
}

// assessmentInputChanged reports whether the update touched a field the
// priority assessment reads.
func assessmentInputChanged(req *models.UpdateTaskRequest) bool {
	return req.ImportanceLevel != nil ||
		req.UrgencyLevel != nil ||
		req.DueDate != nil ||
		req.ComplexityLevel != nil ||
		req.EstimatedDurationMinutes != nil
}

// Start moves a pending task to in_progress. The energy guard applies at
// start time as well, since energy may have dropped since creation.
func (s *Service) Start(userID, id string) (*models.TaskView, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TaskStatusPending {
		return nil, &planner.InvalidTransitionError{
			Resource: "task",
			From:     string(t.Status),
			Action:   planner.ActionStart,
		}
	}

	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}
	if t.RequiredEnergyLevel > user.CurrentEnergyLevel+2 {
		return nil, &planner.EnergyMismatchError{
			Required:  t.RequiredEnergyLevel,
			Available: user.CurrentEnergyLevel,
		}
	}

	if err := s.tasks.MarkStarted(id, time.Now().Unix()); err != nil {
		return nil, err
	}
	s.logger.Info("task started", "task_id", id, "user_id", userID)
	return s.Get(userID, id)
}

// Complete moves a non-terminal task to completed, forcing progress to 100.
func (s *Service) Complete(userID, id string, req *models.CompleteTaskRequest) (*models.TaskView, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return nil, &planner.InvalidTransitionError{
			Resource: "task",
			From:     string(t.Status),
			Action:   planner.ActionComplete,
		}
	}

	var actual *int
	if req != nil {
		actual = req.ActualDurationMinutes
	}
	if err := s.tasks.MarkCompleted(id, time.Now().Unix(), actual); err != nil {
		return nil, err
	}
	s.logger.Info("task completed", "task_id", id, "user_id", userID)
	return s.Get(userID, id)
}

// Cancel moves a non-terminal task to cancelled.
func (s *Service) Cancel(userID, id string) (*models.TaskView, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return nil, &planner.InvalidTransitionError{
			Resource: "task",
			From:     string(t.Status),
			Action:   planner.ActionCancel,
		}
	}
	if err := s.tasks.SetStatus(id, models.TaskStatusCancelled, time.Now().Unix()); err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// Delete soft-deletes a task. Its subtasks stay in the database but become
// unreachable.
func (s *Service) Delete(userID, id string) error {
	if _, err := s.requireTask(userID, id); err != nil {
		return err
	}
	ok, err := s.tasks.SoftDelete(id, time.Now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return &planner.NotFoundError{Resource: "task", ID: id}
	}
	s.logger.Info("task deleted", "task_id", id, "user_id", userID)
	return nil
}

// Breakdown asks the AI to decompose a task and stores the result as a linear
// dependency chain of subtasks appended after any existing ones.
func (s *Service) Breakdown(ctx context.Context, userID, id string, req *models.BreakdownRequest) (*models.BreakdownResponse, error) {
	t, err := s.requireTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return nil, &planner.ValidationError{Field: "status", Reason: "cannot break down a finished task"}
	}

	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}

	maxSubtasks := req.MaxSubtasks
	if maxSubtasks <= 0 {
		maxSubtasks = 5
	}
	if maxSubtasks > 10 {
		maxSubtasks = 10
	}
	target := req.TargetDurationMinutes
	if target <= 0 {
		target = 15
	}

	tc := s.taskContext(t, user)
	tc.UserContext = req.UserContext

	breakdown, err := s.ai.BreakdownTask(ctx, tc, suggest.BreakdownOptions{
		MaxSubtasks:           maxSubtasks,
		TargetDurationMinutes: target,
	})
	if err != nil {
		return nil, fmt.Errorf("breakdown task: %w", err)
	}

	startOrder, err := s.subtasks.MaxSequenceOrder(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	created := make([]*models.Subtask, 0, len(breakdown.Steps))
	var prevID string
	for i, step := range breakdown.Steps {
		confidence := breakdown.Confidence
		st := &models.Subtask{
			ID:                 uuid.New().String(),
			TaskID:             id,
			Title:              step.Title,
			Action:             step.Action,
			CompletionCriteria: step.CompletionCriteria,
			SequenceOrder:      startOrder + i + 1,
			DependsOn:          []string{},
			Status:             models.SubtaskStatusPending,
			DifficultyLevel:    models.SubtaskDifficulty(step.DifficultyLevel),
			EstimatedMinutes:   step.EstimatedMinutes,
			EnergyRequired:     step.EnergyRequired,
			FocusRequired:      step.FocusRequired,
			AIGenerated:        true,
			AIConfidence:       &confidence,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if prevID != "" {
			st.DependsOn = []string{prevID}
		}
		if err := s.subtasks.Insert(st); err != nil {
			return nil, err
		}
		created = append(created, st)
		prevID = st.ID
	}

	s.logger.Info("task broken down",
		"task_id", id,
		"user_id", userID,
		"subtasks", len(created),
		"ai_fallback", breakdown.Fallback)

	return &models.BreakdownResponse{
		TaskID:       id,
		Subtasks:     created,
		Reasoning:    breakdown.Reasoning,
		AIConfidence: breakdown.Confidence,
		Fallback:     breakdown.Fallback,
	}, nil
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

func (s *Service) requireTask(userID, id string) (*models.Task, error) {
	t, err := s.tasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, &planner.NotFoundError{Resource: "task", ID: id}
	}
	return t, nil
}

func (s *Service) taskContext(t *models.Task, user *models.User) suggest.TaskContext {
	return suggest.TaskContext{
		Title:                    t.Title,
		Description:              t.Description,
		ImportanceLevel:          t.ImportanceLevel,
		UrgencyLevel:             t.UrgencyLevel,
		ComplexityLevel:          string(t.ComplexityLevel),
		TaskType:                 string(t.TaskType),
		EstimatedDurationMinutes: t.EstimatedDurationMinutes,
		DueDate:                  t.DueDate,
		ExecutiveDifficulty:      t.ExecutiveDifficulty,
		InitiationDifficulty:     t.InitiationDifficulty,
		CompletionDifficulty:     t.CompletionDifficulty,
		RequiredEnergyLevel:      t.RequiredEnergyLevel,
		UserEnergyLevel:          user.CurrentEnergyLevel,
	}
}

func (s *Service) toView(t *models.Task) *models.TaskView {
	now := time.Now()
	v := &models.TaskView{
		Task:         *t,
		QuadrantName: models.QuadrantName(t.Quadrant),
	}
	if t.DueDate != nil && !t.Status.IsTerminal() {
		due := time.Unix(*t.DueDate, 0)
		v.IsOverdue = due.Before(now)
		v.IsDueSoon = !v.IsOverdue && withinDueSoon(due, now)
	}
	v.BreakdownRecommended = t.ComplexityLevel == models.ComplexityComplex ||
		(t.EstimatedDurationMinutes != nil && *t.EstimatedDurationMinutes > breakdownDurationThreshold) ||
		t.ExecutiveDifficulty >= 7
	return v
}

// withinDueSoon reports whether due falls inside the due-soon window,
// inclusive at exactly the window boundary.
func withinDueSoon(due, now time.Time) bool {
	return !due.After(now.Add(dueSoonWindow))
}

func validateCreate(req *models.CreateTaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.TaskType == "" {
		req.TaskType = models.TaskTypeWork
	}
	if !req.TaskType.IsValid() {
		return &planner.ValidationError{Field: "taskType", Reason: fmt.Sprintf("unknown type %q", req.TaskType)}
	}
	if req.ComplexityLevel == "" {
		req.ComplexityLevel = models.ComplexityMedium
	}
	if !req.ComplexityLevel.IsValid() {
		return &planner.ValidationError{Field: "complexityLevel", Reason: fmt.Sprintf("unknown complexity %q", req.ComplexityLevel)}
	}

	applyLevelDefaults(req)

	for field, v := range map[string]int{
		"importanceLevel":      req.ImportanceLevel,
		"urgencyLevel":         req.UrgencyLevel,
		"executiveDifficulty":  req.ExecutiveDifficulty,
		"initiationDifficulty": req.InitiationDifficulty,
		"completionDifficulty": req.CompletionDifficulty,
		"requiredEnergyLevel":  req.RequiredEnergyLevel,
	} {
		if v < 1 || v > 10 {
			return &planner.ValidationError{Field: field, Reason: "must be between 1 and 10"}
		}
	}
	if req.EstimatedDurationMinutes != nil && *req.EstimatedDurationMinutes <= 0 {
		return &planner.ValidationError{Field: "estimatedDurationMinutes", Reason: "must be positive"}
	}
	return nil
}

// applyLevelDefaults fills zero-valued 1-10 fields with the scale midpoint so
// omitted JSON fields do not fail range validation.
func applyLevelDefaults(req *models.CreateTaskRequest) {
	for _, p := range []*int{
		&req.ImportanceLevel, &req.UrgencyLevel,
		&req.ExecutiveDifficulty, &req.InitiationDifficulty,
		&req.CompletionDifficulty, &req.RequiredEnergyLevel,
	} {
		if *p == 0 {
			*p = 5
		}
	}
}

func validateUpdate(req *models.UpdateTaskRequest) error {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.TaskType != nil && !req.TaskType.IsValid() {
		return &planner.ValidationError{Field: "taskType", Reason: fmt.Sprintf("unknown type %q", *req.TaskType)}
	}
	if req.ComplexityLevel != nil && !req.ComplexityLevel.IsValid() {
		return &planner.ValidationError{Field: "complexityLevel", Reason: fmt.Sprintf("unknown complexity %q", *req.ComplexityLevel)}
	}

	for field, v := range map[string]*int{
		"importanceLevel":      req.ImportanceLevel,
		"urgencyLevel":         req.UrgencyLevel,
		"executiveDifficulty":  req.ExecutiveDifficulty,
		"initiationDifficulty": req.InitiationDifficulty,
		"completionDifficulty": req.CompletionDifficulty,
		"requiredEnergyLevel":  req.RequiredEnergyLevel,
	} {
		if v != nil && (*v < 1 || *v > 10) {
			return &planner.ValidationError{Field: field, Reason: "must be between 1 and 10"}
		}
	}
	if req.EstimatedDurationMinutes != nil && *req.EstimatedDurationMinutes <= 0 {
		return &planner.ValidationError{Field: "estimatedDurationMinutes", Reason: "must be positive"}
	}
	if req.ProgressPercentage != nil && (*req.ProgressPercentage < 0 || *req.ProgressPercentage > 100) {
		return &planner.ValidationError{Field: "progressPercentage", Reason: "must be between 0 and 100"}
	}
	return nil
}
