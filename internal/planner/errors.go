// Package planner defines the domain error taxonomy and the closed set of
// lifecycle actions shared by the task, subtask, and goal services.
package planner

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates an id did not resolve under the caller's ownership
// scope. Soft-deleted rows are treated as missing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidTransitionError indicates a lifecycle action that is illegal from the
// entity's current status.
type InvalidTransitionError struct {
	Resource string
	From     string
	Action   Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s from status %q", e.Action, e.Resource, e.From)
}

// BlockedError indicates a subtask start was attempted while one or more
// prerequisites are incomplete. Titles carries the blocking subtask titles for
// user-facing messaging.
type BlockedError struct {
	SubtaskID string
	Titles    []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("subtask %s is blocked by: %s", e.SubtaskID, strings.Join(e.Titles, ", "))
}

// OverwhelmError is the admission-control rejection raised when a user's
// active-item count meets or exceeds their threshold. It is a policy signal,
// not a hard cap: callers may surface it or override the write.
type OverwhelmError struct {
	ActiveCount int
	Threshold   int
}

func (e *OverwhelmError) Error() string {
	return fmt.Sprintf("overwhelm detected: %d active items at threshold %d", e.ActiveCount, e.Threshold)
}

// Ratio returns active count over threshold.
func (e *OverwhelmError) Ratio() float64 {
	if e.Threshold == 0 {
		return 0
	}
	return float64(e.ActiveCount) / float64(e.Threshold)
}

// ValidationError indicates a field outside its declared range or shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CyclicDependencyError indicates a dependency-set write that would create a
// cycle among sibling subtasks. An undetected cycle would leave every member
// permanently unstartable, so these writes are rejected.
type CyclicDependencyError struct {
	SubtaskID string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle involving subtask %s", e.SubtaskID)
}

// EnergyMismatchError indicates a task requires more energy than the user
// currently has available.
type EnergyMismatchError struct {
	Required  int
	Available int
}

func (e *EnergyMismatchError) Error() string {
	return fmt.Sprintf("task requires energy level %d but current level is %d", e.Required, e.Available)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Action is the closed set of lifecycle actions dispatched on tasks and
// subtasks.
type Action string

const (
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionSkip     Action = "skip"

	// ActionCancel applies to tasks only and is not part of the subtask
	// action dispatch.
	ActionCancel Action = "cancel"
)

// ParseAction maps an action string to the closed enum.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(s)) {
	case ActionStart:
		return ActionStart, nil
	case ActionComplete:
		return ActionComplete, nil
	case ActionSkip:
		return ActionSkip, nil
	}
	return "", &ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", s)}
}
