package users

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/planner"
	"github.com/sqrly/planner/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.NewUserStore(db), logger)
}

func TestCreate(t *testing.T) {
	svc := setupService(t)

	t.Run("defaults applied", func(t *testing.T) {
		u, err := svc.Create(&models.CreateUserRequest{
			Email:       "Morgan@Example.com",
			DisplayName: "Morgan",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Email != "morgan@example.com" {
			t.Fatalf("expected lowercased email, got %s", u.Email)
		}
		if u.Timezone != "UTC" {
			t.Fatalf("expected default timezone UTC, got %s", u.Timezone)
		}
		if u.OverwhelmThreshold != 6 || u.CurrentEnergyLevel != 5 {
			t.Fatalf("expected default thresholds, got %d/%d", u.OverwhelmThreshold, u.CurrentEnergyLevel)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Create(&models.CreateUserRequest{
			Email:       "dup@example.com",
			DisplayName: "First",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = svc.Create(&models.CreateUserRequest{
			Email:       "DUP@example.com",
			DisplayName: "Second",
		})
		var verr *planner.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for duplicate email, got %v", err)
		}
	})

	t.Run("invalid payloads", func(t *testing.T) {
		cases := []struct {
			name string
			req  models.CreateUserRequest
		}{
			{"missing email", models.CreateUserRequest{DisplayName: "X"}},
			{"bad email", models.CreateUserRequest{Email: "not-an-email", DisplayName: "X"}},
			{"missing display name", models.CreateUserRequest{Email: "x@example.com"}},
			{"threshold out of range", models.CreateUserRequest{Email: "y@example.com", DisplayName: "Y", OverwhelmThreshold: 50}},
			{"energy out of range", models.CreateUserRequest{Email: "z@example.com", DisplayName: "Z", CurrentEnergyLevel: 11}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(&tc.req)
				var verr *planner.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected validation error, got %v", err)
				}
			})
		}
	})
}

func TestGetUpdateDelete(t *testing.T) {
	svc := setupService(t)

	u, err := svc.Create(&models.CreateUserRequest{
		Email:       "lifecycle@example.com",
		DisplayName: "Lifecycle",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("get unknown id", func(t *testing.T) {
		_, err := svc.Get("no-such-user")
		if !planner.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("update energy level", func(t *testing.T) {
		energy := 8
		got, err := svc.Update(u.ID, &models.UpdateUserRequest{CurrentEnergyLevel: &energy})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.CurrentEnergyLevel != 8 {
			t.Fatalf("expected energy 8, got %d", got.CurrentEnergyLevel)
		}
	})

	t.Run("update rejects out-of-range threshold", func(t *testing.T) {
		threshold := 0
		_, err := svc.Update(u.ID, &models.UpdateUserRequest{OverwhelmThreshold: &threshold})
		var verr *planner.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("delete then get", func(t *testing.T) {
		if err := svc.Delete(u.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.Get(u.ID)
		if !planner.IsNotFound(err) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
		if err := svc.Delete(u.ID); !planner.IsNotFound(err) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
	})
}
