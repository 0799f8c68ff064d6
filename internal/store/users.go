package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqrly/planner/internal/models"
)

// userColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const userColumns = `id, email, display_name, timezone,
	overwhelm_threshold, current_energy_level,
	created_at, updated_at, deleted_at`

// UserStore handles User CRUD operations on SQLite.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Insert stores a new user. The caller must set ID and timestamps.
func (s *UserStore) Insert(u *models.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (
			id, email, display_name, timezone,
			overwhelm_threshold, current_energy_level,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Email, u.DisplayName, u.Timezone,
		u.OverwhelmThreshold, u.CurrentEnergyLevel,
		u.CreatedAt, u.UpdatedAt, u.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a single non-deleted user by ID. Returns nil if not found.
func (s *UserStore) GetByID(id string) (*models.User, error) {
	u, err := s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM users WHERE id = ? AND deleted_at IS NULL`, userColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetByEmail fetches a single non-deleted user by email. Returns nil if not found.
func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	u, err := s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM users WHERE email = ? AND deleted_at IS NULL`, userColumns), email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// Update applies partial updates to a user.
func (s *UserStore) Update(id string, req *models.UpdateUserRequest) (*models.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *req.DisplayName)
	}
	if req.Timezone != nil {
		sets = append(sets, "timezone = ?")
		args = append(args, *req.Timezone)
	}
	if req.OverwhelmThreshold != nil {
		sets = append(sets, "overwhelm_threshold = ?")
		args = append(args, *req.OverwhelmThreshold)
	}
	if req.CurrentEnergyLevel != nil {
		sets = append(sets, "current_energy_level = ?")
		args = append(args, *req.CurrentEnergyLevel)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ? AND deleted_at IS NULL", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetByID(id)
}

// SoftDelete marks a user deleted. Reports whether a row was affected.
func (s *UserStore) SoftDelete(id string, now int64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE users SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *UserStore) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var deletedAt sql.NullInt64

	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Timezone,
		&u.OverwhelmThreshold, &u.CurrentEnergyLevel,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Int64
	}
	return &u, nil
}
