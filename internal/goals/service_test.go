package goals

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/planner"
	"github.com/sqrly/planner/internal/store"
)

type testEnv struct {
	svc   *Service
	users *store.UserStore
	tasks *store.TaskStore
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewUserStore(db)
	tasks := store.NewTaskStore(db)
	svc := NewService(
		store.NewGoalStore(db),
		tasks,
		store.NewMilestoneStore(db),
		users,
		logger,
	)
	return &testEnv{svc: svc, users: users, tasks: tasks}
}

func (e *testEnv) createUser(t *testing.T, threshold int) *models.User {
	t.Helper()
	now := time.Now().Unix()
	u := &models.User{
		ID:                 uuid.New().String(),
		Email:              uuid.New().String() + "@example.com",
		DisplayName:        "Test User",
		Timezone:           "UTC",
		OverwhelmThreshold: threshold,
		CurrentEnergyLevel: 5,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.users.Insert(u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

func (e *testEnv) createGoal(t *testing.T, userID, title string) *models.GoalView {
	t.Helper()
	g, err := e.svc.Create(userID, &models.CreateGoalRequest{Title: title, Force: true})
	if err != nil {
		t.Fatalf("create goal %q: %v", title, err)
	}
	return g
}

func (e *testEnv) insertTask(t *testing.T, userID, goalID string, status models.TaskStatus) *models.Task {
	t.Helper()
	now := time.Now().Unix()
	task := &models.Task{
		ID:                   uuid.New().String(),
		UserID:               userID,
		GoalID:               &goalID,
		Title:                "goal task",
		ImportanceLevel:      5,
		UrgencyLevel:         5,
		Quadrant:             4,
		Status:               status,
		TaskType:             models.TaskTypeWork,
		ComplexityLevel:      models.ComplexityMedium,
		ExecutiveDifficulty:  5,
		InitiationDifficulty: 5,
		CompletionDifficulty: 5,
		RequiredEnergyLevel:  5,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := e.tasks.Insert(task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return task
}

func TestCreateGoal(t *testing.T) {
	t.Run("defaults and quadrant", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)

		target := time.Now().Add(5 * 24 * time.Hour).Unix()
		got, err := env.svc.Create(u.ID, &models.CreateGoalRequest{
			Title:         "Ship the feature",
			PriorityLevel: 8,
			TargetDate:    &target,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.GoalStatusActive || got.OverwhelmRisk != models.RiskMedium {
			t.Fatalf("unexpected defaults: %+v", got.Goal)
		}
		// High priority plus a target within a week derives a high urgency.
		if got.Quadrant != 1 {
			t.Fatalf("expected quadrant 1, got %d", got.Quadrant)
		}
		if got.DaysUntilTarget == nil {
			t.Fatal("expected days-until-target computed")
		}
	})

	t.Run("no target date sits mid-urgency", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)

		got, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "Someday", PriorityLevel: 8})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Urgency 5 with high importance lands in quadrant 2.
		if got.Quadrant != 2 {
			t.Fatalf("expected quadrant 2, got %d", got.Quadrant)
		}
	})

	t.Run("overwhelm limit has a floor of three", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 3)

		for i := 0; i < 3; i++ {
			if _, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "goal"}); err != nil {
				t.Fatalf("goal %d: unexpected error: %v", i, err)
			}
		}

		_, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "one too many"})
		var oerr *planner.OverwhelmError
		if !errors.As(err, &oerr) {
			t.Fatalf("expected overwhelm error, got %v", err)
		}
		if oerr.Threshold != 3 {
			t.Fatalf("expected limit 3, got %d", oerr.Threshold)
		}

		if _, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "forced", Force: true}); err != nil {
			t.Fatalf("expected force to bypass the guard, got %v", err)
		}
	})

	t.Run("larger thresholds raise the limit", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 15)

		for i := 0; i < 5; i++ {
			if _, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "goal"}); err != nil {
				t.Fatalf("goal %d: unexpected error: %v", i, err)
			}
		}
		_, err := env.svc.Create(u.ID, &models.CreateGoalRequest{Title: "sixth"})
		var oerr *planner.OverwhelmError
		if !errors.As(err, &oerr) {
			t.Fatalf("expected overwhelm at 5 goals, got %v", err)
		}
	})
}

func TestGoalProgress(t *testing.T) {
	t.Run("reaching 100 completes the goal once", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "finish line")

		got, err := env.svc.UpdateProgress(u.ID, g.ID, &models.UpdateProgressRequest{ProgressPercentage: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.GoalStatusCompleted || got.CompletedAt == nil {
			t.Fatalf("expected completed goal, got %+v", got.Goal)
		}
		stamp := *got.CompletedAt

		// A later progress write must not move the completion timestamp.
		time.Sleep(1100 * time.Millisecond)
		again, err := env.svc.UpdateProgress(u.ID, g.ID, &models.UpdateProgressRequest{ProgressPercentage: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.CompletedAt == nil || *again.CompletedAt != stamp {
			t.Fatalf("expected completion timestamp to stay at %d, got %v", stamp, again.CompletedAt)
		}
	})

	t.Run("partial progress leaves the goal active", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "halfway")

		got, err := env.svc.UpdateProgress(u.ID, g.ID, &models.UpdateProgressRequest{ProgressPercentage: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.GoalStatusActive || got.ProgressPercentage != 50.0 {
			t.Fatalf("unexpected goal state: %+v", got.Goal)
		}
	})

	t.Run("out of range clamps", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "bounds")

		got, err := env.svc.UpdateProgress(u.ID, g.ID, &models.UpdateProgressRequest{ProgressPercentage: 150})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ProgressPercentage != 100 {
			t.Fatalf("expected progress clamped to 100, got %f", got.ProgressPercentage)
		}
		if got.Status != models.GoalStatusCompleted || got.CompletedAt == nil {
			t.Fatalf("expected clamped goal completed, got status %s", got.Status)
		}

		low := env.createGoal(t, u.ID, "floor")
		got, err = env.svc.UpdateProgress(u.ID, low.ID, &models.UpdateProgressRequest{ProgressPercentage: -20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ProgressPercentage != 0 {
			t.Fatalf("expected progress clamped to 0, got %f", got.ProgressPercentage)
		}
		if got.Status != models.GoalStatusActive {
			t.Fatalf("expected goal to stay active, got status %s", got.Status)
		}
	})
}

func TestGoalLifecycle(t *testing.T) {
	t.Run("status update to completed stamps once", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "manual completion")

		status := models.GoalStatusCompleted
		got, err := env.svc.Update(u.ID, g.ID, &models.UpdateGoalRequest{Status: &status})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.GoalStatusCompleted || got.CompletedAt == nil {
			t.Fatalf("expected completed with timestamp, got %+v", got.Goal)
		}
	})

	t.Run("quadrant recomputed on priority change", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "reprioritize")
		if g.Quadrant != 4 {
			t.Fatalf("expected quadrant 4 for default priority, got %d", g.Quadrant)
		}

		priority := 9
		got, err := env.svc.Update(u.ID, g.ID, &models.UpdateGoalRequest{PriorityLevel: &priority})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Quadrant != 2 {
			t.Fatalf("expected quadrant 2 after priority bump, got %d", got.Quadrant)
		}
	})

	t.Run("archive is idempotent", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "shelve")

		got, err := env.svc.Archive(u.ID, g.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.GoalStatusArchived {
			t.Fatalf("expected archived, got %s", got.Status)
		}
		if _, err := env.svc.Archive(u.ID, g.ID); err != nil {
			t.Fatalf("expected second archive to be a no-op, got %v", err)
		}
	})

	t.Run("delete detaches tasks", func(t *testing.T) {
		env := setupService(t)
		u := env.createUser(t, 6)
		g := env.createGoal(t, u.ID, "doomed")
		task := env.insertTask(t, u.ID, g.ID, models.TaskStatusPending)

		if err := env.svc.Delete(u.ID, g.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := env.svc.Get(u.ID, g.ID); !planner.IsNotFound(err) {
			t.Fatalf("expected not found after delete, got %v", err)
		}

		got, err := env.tasks.GetByID(task.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.GoalID != nil {
			t.Fatalf("expected task to survive with no goal, got %+v", got)
		}
	})
}

func TestGoalView(t *testing.T) {
	env := setupService(t)
	u := env.createUser(t, 6)
	g := env.createGoal(t, u.ID, "tracked")

	env.insertTask(t, u.ID, g.ID, models.TaskStatusPending)
	env.insertTask(t, u.ID, g.ID, models.TaskStatusCompleted)

	got, err := env.svc.Get(u.ID, g.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TaskCount != 2 || got.CompletedTaskCount != 1 {
		t.Fatalf("unexpected task counts: %d/%d", got.CompletedTaskCount, got.TaskCount)
	}
}

func TestMilestones(t *testing.T) {
	env := setupService(t)
	u := env.createUser(t, 6)
	g := env.createGoal(t, u.ID, "with milestones")
	target := time.Now().Add(14 * 24 * time.Hour).Unix()

	t.Run("create requires a target date", func(t *testing.T) {
		_, err := env.svc.CreateMilestone(u.ID, g.ID, &models.CreateMilestoneRequest{Title: "undated"})
		var verr *planner.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	m, err := env.svc.CreateMilestone(u.ID, g.ID, &models.CreateMilestoneRequest{
		Title:      "first checkpoint",
		TargetDate: target,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("completion edge stamps and clears", func(t *testing.T) {
		completed := true
		got, err := env.svc.UpdateMilestone(u.ID, m.ID, &models.UpdateMilestoneRequest{IsCompleted: &completed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsCompleted || got.CompletedAt == nil {
			t.Fatalf("expected completed milestone, got %+v", got)
		}

		completed = false
		got, err = env.svc.UpdateMilestone(u.ID, m.ID, &models.UpdateMilestoneRequest{IsCompleted: &completed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.IsCompleted || got.CompletedAt != nil {
			t.Fatalf("expected completion cleared, got %+v", got)
		}
	})

	t.Run("same value does not move the stamp", func(t *testing.T) {
		completed := true
		first, err := env.svc.UpdateMilestone(u.ID, m.ID, &models.UpdateMilestoneRequest{IsCompleted: &completed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stamp := *first.CompletedAt

		time.Sleep(1100 * time.Millisecond)
		again, err := env.svc.UpdateMilestone(u.ID, m.ID, &models.UpdateMilestoneRequest{IsCompleted: &completed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.CompletedAt == nil || *again.CompletedAt != stamp {
			t.Fatalf("expected stamp %d preserved, got %v", stamp, again.CompletedAt)
		}
	})

	t.Run("list and count", func(t *testing.T) {
		if _, err := env.svc.CreateMilestone(u.ID, g.ID, &models.CreateMilestoneRequest{
			Title:      "second checkpoint",
			TargetDate: target + 86400,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		list, err := env.svc.ListMilestones(u.ID, g.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 milestones, got %d", len(list))
		}

		view, err := env.svc.Get(u.ID, g.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.MilestoneCount != 2 {
			t.Fatalf("expected milestone count 2, got %d", view.MilestoneCount)
		}
	})

	t.Run("milestone hidden from other users", func(t *testing.T) {
		other := env.createUser(t, 6)
		if _, err := env.svc.UpdateMilestone(other.ID, m.ID, &models.UpdateMilestoneRequest{}); !planner.IsNotFound(err) {
			t.Fatalf("expected not found for foreign milestone, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := env.svc.DeleteMilestone(u.ID, m.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := env.svc.DeleteMilestone(u.ID, m.ID); !planner.IsNotFound(err) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
	})
}
