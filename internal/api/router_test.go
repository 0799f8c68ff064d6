package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/subtasks"
	"github.com/sqrly/planner/internal/suggest"
	"github.com/sqrly/planner/internal/tasks"
	"github.com/sqrly/planner/internal/users"
)

const testAPIKey = "test-key"

func setupServer(t *testing.T) *httptest.Server {
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
	subtaskSvc := subtasks.NewService(subtaskStore, taskStore, logger)
	goalSvc := goals.NewService(goalStore, taskStore, milestoneStore, userStore, logger)

	router := NewRouter(db, userSvc, taskSvc, subtaskSvc, goalSvc, false, testAPIKey, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createTestUser(t *testing.T, srv *httptest.Server) *models.User {
	t.Helper()
	resp := doRequest(t, srv, http.MethodPost, "/users", "", models.CreateUserRequest{
		Email:              "api-test@example.com",
		DisplayName:        "API Test",
		OverwhelmThreshold: 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var u models.User
	decodeBody(t, resp, &u)
	return &u
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body HealthResponse
	decodeBody(t, resp, &body)
	if body.Status != "ok" || body.DB.Status != "ok" {
		t.Fatalf("expected healthy response, got %+v", body)
	}
	if body.AI.Status != "fallback" {
		t.Fatalf("expected ai fallback when no key configured, got %+v", body.AI)
	}
}

func TestAuth(t *testing.T) {
	srv := setupServer(t)

	t.Run("missing bearer token", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/users", "application/json", bytes.NewReader([]byte("{}")))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong bearer token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/users", bytes.NewReader([]byte("{}")))
		req.Header.Set("Authorization", "Bearer wrong")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("missing user scope header", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/tasks", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestUserEndpoints(t *testing.T) {
	srv := setupServer(t)
	u := createTestUser(t, srv)

	t.Run("get", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/users/"+u.ID, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.User
		decodeBody(t, resp, &got)
		if got.Email != "api-test@example.com" {
			t.Fatalf("unexpected user: %+v", got)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/users", "", models.CreateUserRequest{
			Email:       "api-test@example.com",
			DisplayName: "Dup",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("patch", func(t *testing.T) {
		energy := 9
		resp := doRequest(t, srv, http.MethodPatch, "/users/"+u.ID, "", models.UpdateUserRequest{CurrentEnergyLevel: &energy})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.User
		decodeBody(t, resp, &got)
		if got.CurrentEnergyLevel != 9 {
			t.Fatalf("expected energy 9, got %d", got.CurrentEnergyLevel)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/users/nope", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestTaskEndpoints(t *testing.T) {
	srv := setupServer(t)
	u := createTestUser(t, srv)

	var created models.TaskView
	t.Run("create", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/tasks", u.ID, models.CreateTaskRequest{
			Title:           "API task",
			ImportanceLevel: 8,
			UrgencyLevel:    8,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		decodeBody(t, resp, &created)
		if created.Quadrant != 1 || created.QuadrantName == "" {
			t.Fatalf("unexpected task view: %+v", created)
		}
		if created.AIAssessment == nil || !created.AIAssessment.Fallback {
			t.Fatal("expected a fallback assessment on the created task")
		}
	})

	t.Run("list", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/tasks?status=pending", u.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.ListTasksResponse
		decodeBody(t, resp, &got)
		if got.Pagination.Total != 1 || len(got.Tasks) != 1 {
			t.Fatalf("unexpected list: %+v", got.Pagination)
		}
	})

	t.Run("lifecycle over http", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/tasks/"+created.ID+"/start", u.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 on start, got %d", resp.StatusCode)
		}
		resp.Body.Close()

		// Complete tolerates an empty body.
		resp = doRequest(t, srv, http.MethodPost, "/tasks/"+created.ID+"/complete", u.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 on complete, got %d", resp.StatusCode)
		}
		var done models.TaskView
		decodeBody(t, resp, &done)
		if done.Status != models.TaskStatusCompleted {
			t.Fatalf("expected completed, got %s", done.Status)
		}

		resp = doRequest(t, srv, http.MethodPost, "/tasks/"+created.ID+"/start", u.ID, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409 restarting a finished task, got %d", resp.StatusCode)
		}
	})

	t.Run("overwhelm returns 422 with detail", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/users", "", models.CreateUserRequest{
			Email:              "tiny@example.com",
			DisplayName:        "Tiny",
			OverwhelmThreshold: 1,
		})
		var tiny models.User
		decodeBody(t, resp, &tiny)

		resp = doRequest(t, srv, http.MethodPost, "/tasks", tiny.ID, models.CreateTaskRequest{Title: "one"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		resp = doRequest(t, srv, http.MethodPost, "/tasks", tiny.ID, models.CreateTaskRequest{Title: "two"})
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.StatusCode)
		}
		var body struct {
			Error       string  `json:"error"`
			ActiveCount int     `json:"activeCount"`
			Threshold   int     `json:"threshold"`
			Ratio       float64 `json:"ratio"`
			Hint        string  `json:"hint"`
		}
		decodeBody(t, resp, &body)
		if body.ActiveCount != 1 || body.Threshold != 1 || body.Hint == "" {
			t.Fatalf("unexpected overwhelm payload: %+v", body)
		}

		resp = doRequest(t, srv, http.MethodPost, "/tasks", tiny.ID, models.CreateTaskRequest{Title: "forced", Force: true})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected force to create, got %d", resp.StatusCode)
		}
	})

	t.Run("delete", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodDelete, "/tasks/"+created.ID, u.ID, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
		resp = doRequest(t, srv, http.MethodGet, "/tasks/"+created.ID, u.ID, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
		}
	})
}

func TestSubtaskEndpoints(t *testing.T) {
	srv := setupServer(t)
	u := createTestUser(t, srv)

	var task models.TaskView
	resp := doRequest(t, srv, http.MethodPost, "/tasks", u.ID, models.CreateTaskRequest{Title: "parent"})
	decodeBody(t, resp, &task)

	var first, second models.SubtaskView
	resp = doRequest(t, srv, http.MethodPost, "/tasks/"+task.ID+"/subtasks", u.ID, models.CreateSubtaskRequest{Title: "step one"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &first)

	resp = doRequest(t, srv, http.MethodPost, "/tasks/"+task.ID+"/subtasks", u.ID, models.CreateSubtaskRequest{
		Title:     "step two",
		DependsOn: []string{first.ID},
	})
	decodeBody(t, resp, &second)
	if second.CanStart || !second.IsBlocked {
		t.Fatalf("expected blocked dependent, got %+v", second)
	}

	t.Run("blocked start returns 409 with blockers", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/subtasks/"+second.ID+"/action", u.ID, models.SubtaskActionRequest{Action: "start"})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
		var body struct {
			Error     string   `json:"error"`
			BlockedBy []string `json:"blockedBy"`
		}
		decodeBody(t, resp, &body)
		if len(body.BlockedBy) != 1 || body.BlockedBy[0] != "step one" {
			t.Fatalf("unexpected blockers: %v", body.BlockedBy)
		}
	})

	t.Run("chain unblocks on completion", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/subtasks/"+first.ID+"/action", u.ID, models.SubtaskActionRequest{Action: "complete"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()

		resp = doRequest(t, srv, http.MethodPost, "/subtasks/"+second.ID+"/action", u.ID, models.SubtaskActionRequest{Action: "start"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 after prerequisite completed, got %d", resp.StatusCode)
		}
		var got models.SubtaskView
		decodeBody(t, resp, &got)
		if got.Status != models.SubtaskStatusInProgress {
			t.Fatalf("expected in_progress, got %s", got.Status)
		}
	})

	t.Run("cycle returns 409", func(t *testing.T) {
		deps := []string{second.ID}
		resp := doRequest(t, srv, http.MethodPatch, "/subtasks/"+first.ID, u.ID, models.UpdateSubtaskRequest{DependsOn: &deps})
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409 for a cycle, got %d", resp.StatusCode)
		}
	})

	t.Run("list by task", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/tasks/"+task.ID+"/subtasks", u.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got struct {
			Subtasks []*models.SubtaskView `json:"subtasks"`
		}
		decodeBody(t, resp, &got)
		if len(got.Subtasks) != 2 {
			t.Fatalf("expected 2 subtasks, got %d", len(got.Subtasks))
		}
	})
}

func TestGoalEndpoints(t *testing.T) {
	srv := setupServer(t)
	u := createTestUser(t, srv)

	var goal models.GoalView
	resp := doRequest(t, srv, http.MethodPost, "/goals", u.ID, models.CreateGoalRequest{
		Title:         "API goal",
		PriorityLevel: 7,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &goal)

	t.Run("progress completes at 100", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/goals/"+goal.ID+"/progress", u.ID, models.UpdateProgressRequest{ProgressPercentage: 100})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.GoalView
		decodeBody(t, resp, &got)
		if got.Status != models.GoalStatusCompleted || got.CompletedAt == nil {
			t.Fatalf("expected completed goal, got %+v", got.Goal)
		}
	})

	t.Run("milestones", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/goals/"+goal.ID+"/milestones", u.ID, models.CreateMilestoneRequest{
			Title:      "checkpoint",
			TargetDate: 1750000000,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var m models.Milestone
		decodeBody(t, resp, &m)

		completed := true
		resp = doRequest(t, srv, http.MethodPatch, "/milestones/"+m.ID, u.ID, models.UpdateMilestoneRequest{IsCompleted: &completed})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.Milestone
		decodeBody(t, resp, &got)
		if !got.IsCompleted || got.CompletedAt == nil {
			t.Fatalf("expected completed milestone, got %+v", got)
		}

		resp = doRequest(t, srv, http.MethodDelete, "/milestones/"+m.ID, u.ID, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
	})

	t.Run("archive", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/goals/"+goal.ID+"/archive", u.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var got models.GoalView
		decodeBody(t, resp, &got)
		if got.Status != models.GoalStatusArchived {
			t.Fatalf("expected archived, got %s", got.Status)
		}
	})
}
