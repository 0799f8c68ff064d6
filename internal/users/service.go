// Package users implements account CRUD and the ADHD profile fields the
// planning services read for admission control.
package users

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

// Service handles user operations.
type Service struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewService(users *store.UserStore, logger *slog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// Create registers a new user. Unset profile fields get the planner defaults.
func (s *Service) Create(req *models.CreateUserRequest) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &planner.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, &planner.ValidationError{Field: "displayName", Reason: "must not be empty"}
	}

	threshold := req.OverwhelmThreshold
	if threshold == 0 {
		threshold = models.DefaultOverwhelmThreshold
	}
	if threshold < 1 || threshold > 20 {
		return nil, &planner.ValidationError{Field: "overwhelmThreshold", Reason: "must be between 1 and 20"}
	}

	energy := req.CurrentEnergyLevel
	if energy == 0 {
		energy = models.DefaultEnergyLevel
	}
	if energy < 1 || energy > 10 {
		return nil, &planner.ValidationError{Field: "currentEnergyLevel", Reason: "must be between 1 and 10"}
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, &planner.ValidationError{Field: "email", Reason: "already registered"}
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	now := time.Now().Unix()
	u := &models.User{
		ID:                 uuid.New().String(),
		Email:              email,
		DisplayName:        strings.TrimSpace(req.DisplayName),
		Timezone:           timezone,
		OverwhelmThreshold: threshold,
		CurrentEnergyLevel: energy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.Insert(u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID)
	return u, nil
}

// Get fetches a user by ID.
func (s *Service) Get(id string) (*models.User, error) {
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &planner.NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

// Update applies partial profile updates.
func (s *Service) Update(id string, req *models.UpdateUserRequest) (*models.User, error) {
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return nil, &planner.ValidationError{Field: "displayName", Reason: "must not be empty"}
	}
	if req.OverwhelmThreshold != nil && (*req.OverwhelmThreshold < 1 || *req.OverwhelmThreshold > 20) {
		return nil, &planner.ValidationError{Field: "overwhelmThreshold", Reason: "must be between 1 and 20"}
	}
	if req.CurrentEnergyLevel != nil && (*req.CurrentEnergyLevel < 1 || *req.CurrentEnergyLevel > 10) {
		return nil, &planner.ValidationError{Field: "currentEnergyLevel", Reason: "must be between 1 and 10"}
	}

	u, err := s.users.Update(id, req)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &planner.NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

// Delete soft-deletes a user. Their tasks and goals stay in place but become
// unreachable through the ownership checks.
func (s *Service) Delete(id string) error {
	ok, err := s.users.SoftDelete(id, time.Now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return &planner.NotFoundError{Resource: "user", ID: id}
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}
