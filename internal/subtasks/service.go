// Package subtasks implements subtask CRUD, the start/complete/skip action
// dispatch, and the sibling dependency graph: a subtask can start only when
// every prerequisite completed, and dependency writes that would form a cycle
// are rejected.
package subtasks

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/planner"
	"github.com/sqrly/planner/internal/store"
)

// Service handles subtask operations.
type Service struct {
	subtasks *store.SubtaskStore
	tasks    *store.TaskStore
	logger   *slog.Logger
}

func NewService(subtasks *store.SubtaskStore, tasks *store.TaskStore, logger *slog.Logger) *Service {
	return &Service{subtasks: subtasks, tasks: tasks, logger: logger}
}

// Create adds a subtask to a task. Dependencies must reference siblings of
// the same parent and must not close a cycle.
func (s *Service) Create(userID, taskID string, req *models.CreateSubtaskRequest) (*models.SubtaskView, error) {
	if _, err := s.requireTask(userID, taskID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	difficulty := req.DifficultyLevel
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	if !difficulty.IsValid() {
		return nil, &planner.ValidationError{Field: "difficultyLevel", Reason: fmt.Sprintf("unknown difficulty %q", difficulty)}
	}
	estimated := req.EstimatedMinutes
	if estimated == 0 {
		estimated = 15
	}
	if estimated < 0 {
		return nil, &planner.ValidationError{Field: "estimatedMinutes", Reason: "must be positive"}
	}
	energy := defaultLevel(req.EnergyRequired)
	focus := defaultLevel(req.FocusRequired)
	if energy < 1 || energy > 10 {
		return nil, &planner.ValidationError{Field: "energyRequired", Reason: "must be between 1 and 10"}
	}
	if focus < 1 || focus > 10 {
		return nil, &planner.ValidationError{Field: "focusRequired", Reason: "must be between 1 and 10"}
	}

	siblings, err := s.subtasks.ListByTask(taskID)
	if err != nil {
		return nil, err
	}

	depends := req.DependsOn
	if depends == nil {
		depends = []string{}
	}
	if err := validateDependencies("", depends, siblings); err != nil {
		return nil, err
	}

	order := req.SequenceOrder
	if order <= 0 {
		max, err := s.subtasks.MaxSequenceOrder(taskID)
		if err != nil {
			return nil, err
		}
		order = max + 1
	}

	now := time.Now().Unix()
	st := &models.Subtask{
		ID:                 uuid.New().String(),
		TaskID:             taskID,
		Title:              strings.TrimSpace(req.Title),
		Action:             req.Action,
		CompletionCriteria: req.CompletionCriteria,
		SequenceOrder:      order,
		DependsOn:          depends,
		Status:             models.SubtaskStatusPending,
		DifficultyLevel:    difficulty,
		EstimatedMinutes:   estimated,
		EnergyRequired:     energy,
		FocusRequired:      focus,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.subtasks.Insert(st); err != nil {
		return nil, err
	}

	s.logger.Info("subtask created", "subtask_id", st.ID, "task_id", taskID)
	return s.Get(userID, st.ID)
}

// Get fetches a subtask with its dependency state.
func (s *Service) Get(userID, id string) (*models.SubtaskView, error) {
	st, err := s.requireSubtask(userID, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.subtasks.ListByTask(st.TaskID)
	if err != nil {
		return nil, err
	}
	return toView(st, siblingIndex(siblings)), nil
}

// ListByTask returns a task's subtasks in sequence order with dependency
// state computed for each.
func (s *Service) ListByTask(userID, taskID string) ([]*models.SubtaskView, error) {
	if _, err := s.requireTask(userID, taskID); err != nil {
		return nil, err
	}
	siblings, err := s.subtasks.ListByTask(taskID)
	if err != nil {
		return nil, err
	}
	index := siblingIndex(siblings)
	views := make([]*models.SubtaskView, 0, len(siblings))
	for _, st := range siblings {
		views = append(views, toView(st, index))
	}
	return views, nil
}

// Update applies partial updates. A dependency rewrite re-runs the same-parent
// and cycle checks against the updated graph.
func (s *Service) Update(userID, id string, req *models.UpdateSubtaskRequest) (*models.SubtaskView, error) {
	st, err := s.requireSubtask(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, &planner.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.SequenceOrder != nil && *req.SequenceOrder <= 0 {
		return nil, &planner.ValidationError{Field: "sequenceOrder", Reason: "must be positive"}
	}
	if req.DifficultyLevel != nil && !req.DifficultyLevel.IsValid() {
		return nil, &planner.ValidationError{Field: "difficultyLevel", Reason: fmt.Sprintf("unknown difficulty %q", *req.DifficultyLevel)}
	}
	if req.EstimatedMinutes != nil && *req.EstimatedMinutes <= 0 {
		return nil, &planner.ValidationError{Field: "estimatedMinutes", Reason: "must be positive"}
	}
	if req.EnergyRequired != nil && (*req.EnergyRequired < 1 || *req.EnergyRequired > 10) {
		return nil, &planner.ValidationError{Field: "energyRequired", Reason: "must be between 1 and 10"}
	}
	if req.FocusRequired != nil && (*req.FocusRequired < 1 || *req.FocusRequired > 10) {
		return nil, &planner.ValidationError{Field: "focusRequired", Reason: "must be between 1 and 10"}
	}

	if req.DependsOn != nil {
		siblings, err := s.subtasks.ListByTask(st.TaskID)
		if err != nil {
			return nil, err
		}
		if err := validateDependencies(id, *req.DependsOn, siblings); err != nil {
			return nil, err
		}
	}

	updated, err := s.subtasks.Update(id, req)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &planner.NotFoundError{Resource: "subtask", ID: id}
	}
	return s.Get(userID, id)
}

// Act dispatches a lifecycle action. Start is gated on every prerequisite
// being completed; a skipped prerequisite blocks its dependents permanently.
func (s *Service) Act(userID, id string, req *models.SubtaskActionRequest) (*models.SubtaskView, error) {
	action, err := planner.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	st, err := s.requireSubtask(userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	switch action {
	case planner.ActionStart:
		if st.Status != models.SubtaskStatusPending {
			return nil, &planner.InvalidTransitionError{Resource: "subtask", From: string(st.Status), Action: action}
		}
		siblings, err := s.subtasks.ListByTask(st.TaskID)
		if err != nil {
			return nil, err
		}
		if blockers := blockingTitles(st, siblingIndex(siblings)); len(blockers) > 0 {
			return nil, &planner.BlockedError{SubtaskID: id, Titles: blockers}
		}
		if err := s.subtasks.MarkStarted(id, now); err != nil {
			return nil, err
		}

	case planner.ActionComplete:
		if st.Status.IsTerminal() {
			return nil, &planner.InvalidTransitionError{Resource: "subtask", From: string(st.Status), Action: action}
		}
		if err := s.subtasks.MarkCompleted(id, now, req.ActualMinutes); err != nil {
			return nil, err
		}
		if err := s.syncTaskProgress(st.TaskID); err != nil {
			return nil, err
		}

	case planner.ActionSkip:
		if st.Status.IsTerminal() {
			return nil, &planner.InvalidTransitionError{Resource: "subtask", From: string(st.Status), Action: action}
		}
		if err := s.subtasks.MarkSkipped(id, now); err != nil {
			return nil, err
		}

	default:
		return nil, &planner.ValidationError{Field: "action", Reason: fmt.Sprintf("action %q does not apply to subtasks", action)}
	}

	s.logger.Info("subtask action", "subtask_id", id, "action", string(action))
	return s.Get(userID, id)
}

// Delete removes a subtask and strips it from sibling dependency lists so no
// dependent is left pointing at a missing prerequisite.
func (s *Service) Delete(userID, id string) error {
	st, err := s.requireSubtask(userID, id)
	if err != nil {
		return err
	}

	siblings, err := s.subtasks.ListByTask(st.TaskID)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID == id || !contains(sib.DependsOn, id) {
			continue
		}
		pruned := make([]string, 0, len(sib.DependsOn)-1)
		for _, dep := range sib.DependsOn {
			if dep != id {
				pruned = append(pruned, dep)
			}
		}
		if _, err := s.subtasks.Update(sib.ID, &models.UpdateSubtaskRequest{DependsOn: &pruned}); err != nil {
			return err
		}
	}

	ok, err := s.subtasks.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return &planner.NotFoundError{Resource: "subtask", ID: id}
	}
	s.logger.Info("subtask deleted", "subtask_id", id, "task_id", st.TaskID)
	return nil
}

// syncTaskProgress recomputes the parent task's progress as the completed
// share of its subtasks.
func (s *Service) syncTaskProgress(taskID string) error {
	siblings, err := s.subtasks.ListByTask(taskID)
	if err != nil {
		return err
	}
	if len(siblings) == 0 {
		return nil
	}
	completed := 0
	for _, st := range siblings {
		if st.Status == models.SubtaskStatusCompleted {
			completed++
		}
	}
	progress := float64(completed) / float64(len(siblings)) * 100
	_, err = s.tasks.Update(taskID, &models.UpdateTaskRequest{ProgressPercentage: &progress}, nil)
	return err
}

func (s *Service) requireTask(userID, taskID string) (*models.Task, error) {
	t, err := s.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, &planner.NotFoundError{Resource: "task", ID: taskID}
	}
	return t, nil
}

func (s *Service) requireSubtask(userID, id string) (*models.Subtask, error) {
	st, err := s.subtasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &planner.NotFoundError{Resource: "subtask", ID: id}
	}
	if _, err := s.requireTask(userID, st.TaskID); err != nil {
		return nil, &planner.NotFoundError{Resource: "subtask", ID: id}
	}
	return st, nil
}

// validateDependencies checks that deps reference existing siblings, contain
// no self-reference, and do not close a cycle. selfID is empty for a subtask
// being created, which cannot close a cycle because nothing depends on it yet.
func validateDependencies(selfID string, deps []string, siblings []*models.Subtask) error {
	index := siblingIndex(siblings)
	seen := map[string]bool{}
	for _, dep := range deps {
		if dep == selfID && selfID != "" {
			return &planner.CyclicDependencyError{SubtaskID: selfID}
		}
		if _, ok := index[dep]; !ok {
			return &planner.ValidationError{Field: "dependsOn", Reason: fmt.Sprintf("unknown subtask %s", dep)}
		}
		if seen[dep] {
			return &planner.ValidationError{Field: "dependsOn", Reason: fmt.Sprintf("duplicate dependency %s", dep)}
		}
		seen[dep] = true
	}

	if selfID == "" {
		return nil
	}

	// Walk the graph with selfID's edges replaced by deps.
	graph := make(map[string][]string, len(siblings))
	for _, st := range siblings {
		if st.ID == selfID {
			graph[st.ID] = deps
		} else {
			graph[st.ID] = st.DependsOn
		}
	}
	if hasCycleFrom(selfID, graph) {
		return &planner.CyclicDependencyError{SubtaskID: selfID}
	}
	return nil
}

// hasCycleFrom reports whether start is reachable from itself in the
// dependency graph.
func hasCycleFrom(start string, graph map[string][]string) bool {
	var visit func(id string, seen map[string]bool) bool
	visit = func(id string, seen map[string]bool) bool {
		for _, dep := range graph[id] {
			if dep == start {
				return true
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if visit(dep, seen) {
				return true
			}
		}
		return false
	}
	return visit(start, map[string]bool{})
}

// blockingTitles returns the titles of prerequisites that are not completed.
// Skipped prerequisites count as blocking.
func blockingTitles(st *models.Subtask, index map[string]*models.Subtask) []string {
	var titles []string
	for _, dep := range st.DependsOn {
		sib, ok := index[dep]
		if !ok {
			titles = append(titles, dep)
			continue
		}
		if sib.Status != models.SubtaskStatusCompleted {
			titles = append(titles, sib.Title)
		}
	}
	return titles
}

func siblingIndex(siblings []*models.Subtask) map[string]*models.Subtask {
	index := make(map[string]*models.Subtask, len(siblings))
	for _, st := range siblings {
		index[st.ID] = st
	}
	return index
}

func toView(st *models.Subtask, index map[string]*models.Subtask) *models.SubtaskView {
	blocked := len(blockingTitles(st, index)) > 0
	return &models.SubtaskView{
		Subtask:   *st,
		CanStart:  st.Status == models.SubtaskStatusPending && !blocked,
		IsBlocked: st.Status == models.SubtaskStatusPending && blocked,
	}
}

func defaultLevel(v int) int {
	if v == 0 {
		return 5
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
