// Package seed loads demo fixtures from a YAML file into an empty database.
// It exists for local development and demos; production deployments simply
// leave the seed file unset.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/tasks"
	"github.com/sqrly/planner/internal/users"
)

// File is the top-level YAML fixture document.
type File struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture is one demo user and everything they own.
type UserFixture struct {
	Email              string        `yaml:"email"`
	DisplayName        string        `yaml:"displayName"`
	Timezone           string        `yaml:"timezone"`
	OverwhelmThreshold int           `yaml:"overwhelmThreshold"`
	CurrentEnergyLevel int           `yaml:"currentEnergyLevel"`
	Goals              []GoalFixture `yaml:"goals"`
	Tasks              []TaskFixture `yaml:"tasks"`
}

// GoalFixture is one demo goal with optional milestones.
type GoalFixture struct {
	Title         string             `yaml:"title"`
	Description   string             `yaml:"description"`
	PriorityLevel int                `yaml:"priorityLevel"`
	TargetDate    *int64             `yaml:"targetDate"`
	OverwhelmRisk string             `yaml:"overwhelmRisk"`
	Milestones    []MilestoneFixture `yaml:"milestones"`
	Tasks         []TaskFixture      `yaml:"tasks"`
}

// MilestoneFixture is one demo milestone.
type MilestoneFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	TargetDate  int64  `yaml:"targetDate"`
}

// TaskFixture is one demo task.
type TaskFixture struct {
	Title                    string `yaml:"title"`
	Description              string `yaml:"description"`
	ImportanceLevel          int    `yaml:"importanceLevel"`
	UrgencyLevel             int    `yaml:"urgencyLevel"`
	TaskType                 string `yaml:"taskType"`
	ComplexityLevel          string `yaml:"complexityLevel"`
	EstimatedDurationMinutes *int   `yaml:"estimatedDurationMinutes"`
	DueDate                  *int64 `yaml:"dueDate"`
	RequiredEnergyLevel      int    `yaml:"requiredEnergyLevel"`
}

// Loader inserts fixtures through the services so every seeded row passes the
// same validation and classification as API writes.
type Loader struct {
	db     *store.DB
	users  *users.Service
	tasks  *tasks.Service
	goals  *goals.Service
	logger *slog.Logger
}

func NewLoader(db *store.DB, usersSvc *users.Service, tasksSvc *tasks.Service, goalsSvc *goals.Service, logger *slog.Logger) *Loader {
	return &Loader{db: db, users: usersSvc, tasks: tasksSvc, goals: goalsSvc, logger: logger}
}

// Run parses the fixture file and loads it if the database holds no tasks.
// A non-empty database makes Run a no-op so restarts never duplicate demo data.
func (l *Loader) Run(ctx context.Context, path string) error {
	count, err := l.db.TaskCount()
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if count > 0 {
		l.logger.Info("seed skipped, database not empty", "tasks", count)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, uf := range f.Users {
		if err := l.loadUser(ctx, uf); err != nil {
			return fmt.Errorf("seed user %s: %w", uf.Email, err)
		}
	}

	l.logger.Info("seed loaded", "file", path, "users", len(f.Users))
	return nil
}

func (l *Loader) loadUser(ctx context.Context, uf UserFixture) error {
	u, err := l.users.Create(&models.CreateUserRequest{
		Email:              uf.Email,
		DisplayName:        uf.DisplayName,
		Timezone:           uf.Timezone,
		OverwhelmThreshold: uf.OverwhelmThreshold,
		CurrentEnergyLevel: uf.CurrentEnergyLevel,
	})
	if err != nil {
		return err
	}

	for _, gf := range uf.Goals {
		g, err := l.goals.Create(u.ID, &models.CreateGoalRequest{
			Title:         gf.Title,
			Description:   gf.Description,
			PriorityLevel: gf.PriorityLevel,
			TargetDate:    gf.TargetDate,
			OverwhelmRisk: models.OverwhelmRisk(gf.OverwhelmRisk),
			Force:         true,
		})
		if err != nil {
			return err
		}
		for _, mf := range gf.Milestones {
			if _, err := l.goals.CreateMilestone(u.ID, g.ID, &models.CreateMilestoneRequest{
				Title:       mf.Title,
				Description: mf.Description,
				TargetDate:  mf.TargetDate,
			}); err != nil {
				return err
			}
		}
		for _, tf := range gf.Tasks {
			if err := l.loadTask(ctx, u.ID, &g.ID, tf); err != nil {
				return err
			}
		}
	}

	for _, tf := range uf.Tasks {
		if err := l.loadTask(ctx, u.ID, nil, tf); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadTask(ctx context.Context, userID string, goalID *string, tf TaskFixture) error {
	_, err := l.tasks.Create(ctx, userID, &models.CreateTaskRequest{
		GoalID:                   goalID,
		Title:                    tf.Title,
		Description:              tf.Description,
		ImportanceLevel:          tf.ImportanceLevel,
		UrgencyLevel:             tf.UrgencyLevel,
		TaskType:                 models.TaskType(tf.TaskType),
		ComplexityLevel:          models.TaskComplexity(tf.ComplexityLevel),
		EstimatedDurationMinutes: tf.EstimatedDurationMinutes,
		DueDate:                  tf.DueDate,
		RequiredEnergyLevel:      tf.RequiredEnergyLevel,
		Force:                    true,
	})
	return err
}
