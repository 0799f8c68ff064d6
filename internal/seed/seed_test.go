package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/suggest"
	"github.com/sqrly/planner/internal/tasks"
	"github.com/sqrly/planner/internal/users"
)

const fixture = `
users:
  - email: demo@example.com
    displayName: Demo User
    overwhelmThreshold: 10
    goals:
      - title: Learn woodworking
        priorityLevel: 7
        milestones:
          - title: Finish first project
            targetDate: 1760000000
        tasks:
          - title: Watch joinery basics
            taskType: learning
            complexityLevel: simple
    tasks:
      - title: Book dentist appointment
        taskType: admin
        complexityLevel: micro
`

type testEnv struct {
	db     *store.DB
	loader *Loader
	users  *store.UserStore
	tasks  *store.TaskStore
}

func setupLoader(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	subtaskStore := store.NewSubtaskStore(db)
	goalStore := store.NewGoalStore(db)
	milestoneStore := store.NewMilestoneStore(db)

	userSvc := users.NewService(userStore, logger)
	taskSvc := tasks.NewService(taskStore, subtaskStore, goalStore, userStore, suggest.FallbackService{}, logger)
	goalSvc := goals.NewService(goalStore, taskStore, milestoneStore, userStore, logger)

	loader := NewLoader(db, userSvc, taskSvc, goalSvc, logger)
	return &testEnv{db: db, loader: loader, users: userStore, tasks: taskStore}
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("loads fixtures into an empty database", func(t *testing.T) {
		env := setupLoader(t)
		if err := env.loader.Run(ctx, writeFixture(t, fixture)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		count, err := env.db.TaskCount()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 seeded tasks, got %d", count)
		}

		u, err := env.users.GetByEmail("demo@example.com")
		if err != nil || u == nil {
			t.Fatalf("expected seeded user, got %v %v", u, err)
		}
		tasks, _, err := env.tasks.List(u.ID, &models.ListTasksRequest{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var withGoal int
		for _, task := range tasks {
			if task.GoalID != nil {
				withGoal++
			}
			if task.AIPriorityScore == nil {
				t.Fatal("expected seeded tasks to be assessed")
			}
		}
		if withGoal != 1 {
			t.Fatalf("expected one goal-linked task, got %d", withGoal)
		}
	})

	t.Run("skips a populated database", func(t *testing.T) {
		env := setupLoader(t)
		path := writeFixture(t, fixture)
		if err := env.loader.Run(ctx, path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := env.loader.Run(ctx, path); err != nil {
			t.Fatalf("expected second run to no-op, got %v", err)
		}

		count, _ := env.db.TaskCount()
		if count != 2 {
			t.Fatalf("expected no duplicates, got %d tasks", count)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		env := setupLoader(t)
		if err := env.loader.Run(ctx, "/nonexistent/seed.yaml"); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		env := setupLoader(t)
		path := writeFixture(t, "users:\n  - email: [broken")
		if err := env.loader.Run(ctx, path); err == nil {
			t.Fatal("expected an error for malformed yaml")
		}
	})
}
