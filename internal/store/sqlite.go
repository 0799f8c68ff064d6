package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite handles one writer at a time; a single connection also makes
	// every read-modify-write sequence effectively serialized, which is the
	// concurrency model the services rely on.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  timezone TEXT NOT NULL DEFAULT 'UTC',
  overwhelm_threshold INTEGER NOT NULL DEFAULT 6,
  current_energy_level INTEGER NOT NULL DEFAULT 5,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS goals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  priority_level INTEGER NOT NULL DEFAULT 5,
  quadrant INTEGER NOT NULL DEFAULT 4,
  status TEXT NOT NULL DEFAULT 'active',
  progress_percentage REAL NOT NULL DEFAULT 0.0,
  target_date INTEGER,
  overwhelm_risk TEXT NOT NULL DEFAULT 'medium',
  ai_confidence REAL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  completed_at INTEGER,
  deleted_at INTEGER,
  FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);
CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status);
CREATE INDEX IF NOT EXISTS idx_goals_target_date ON goals(target_date);

CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  goal_id TEXT,
  title TEXT NOT NULL,
  description TEXT,
  importance_level INTEGER NOT NULL DEFAULT 5,
  urgency_level INTEGER NOT NULL DEFAULT 5,
  quadrant INTEGER NOT NULL DEFAULT 4,
  status TEXT NOT NULL DEFAULT 'pending',
  task_type TEXT NOT NULL DEFAULT 'work',
  complexity_level TEXT NOT NULL DEFAULT 'medium',
  estimated_duration_minutes INTEGER,
  actual_duration_minutes INTEGER,
  due_date INTEGER,
  executive_difficulty INTEGER NOT NULL DEFAULT 5,
  initiation_difficulty INTEGER NOT NULL DEFAULT 5,
  completion_difficulty INTEGER NOT NULL DEFAULT 5,
  required_energy_level INTEGER NOT NULL DEFAULT 5,
  progress_percentage REAL NOT NULL DEFAULT 0.0,
  ai_priority_score REAL,
  ai_confidence REAL,
  ai_assessment TEXT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  started_at INTEGER,
  completed_at INTEGER,
  deleted_at INTEGER,
  FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
  FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_goal ON tasks(goal_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);

CREATE TABLE IF NOT EXISTS subtasks (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  title TEXT NOT NULL,
  action TEXT,
  completion_criteria TEXT,
  sequence_order INTEGER NOT NULL DEFAULT 1,
  depends_on TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  difficulty_level TEXT NOT NULL DEFAULT 'medium',
  estimated_minutes INTEGER NOT NULL DEFAULT 15,
  actual_minutes INTEGER,
  energy_required INTEGER NOT NULL DEFAULT 5,
  focus_required INTEGER NOT NULL DEFAULT 5,
  ai_generated INTEGER NOT NULL DEFAULT 0,
  ai_confidence REAL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  started_at INTEGER,
  completed_at INTEGER,
  FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id);
CREATE INDEX IF NOT EXISTS idx_subtasks_task_sequence ON subtasks(task_id, sequence_order);

CREATE TABLE IF NOT EXISTS milestones (
  id TEXT PRIMARY KEY,
  goal_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  target_date INTEGER NOT NULL,
  is_completed INTEGER NOT NULL DEFAULT 0,
  completed_at INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_milestones_goal ON milestones(goal_id);
CREATE INDEX IF NOT EXISTS idx_milestones_target_date ON milestones(target_date);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema changes that were added after the
// initial schema. Each migration is idempotent so it is safe to call on every
// database open.
func runMigrations(db *sql.DB) error {
	// current_energy_level was added to users after launch.
	hasEnergy, err := columnExists(db, "users", "current_energy_level")
	if err != nil {
		return fmt.Errorf("check current_energy_level column: %w", err)
	}
	if !hasEnergy {
		if _, err := db.Exec(`ALTER TABLE users ADD COLUMN current_energy_level INTEGER NOT NULL DEFAULT 5`); err != nil {
			return fmt.Errorf("add current_energy_level: %w", err)
		}
	}

	// ai_assessment replaced the earlier free-form ai_suggestions blob.
	hasAssessment, err := columnExists(db, "tasks", "ai_assessment")
	if err != nil {
		return fmt.Errorf("check ai_assessment column: %w", err)
	}
	if !hasAssessment {
		if _, err := db.Exec(`ALTER TABLE tasks ADD COLUMN ai_assessment TEXT`); err != nil {
			return fmt.Errorf("add ai_assessment: %w", err)
		}
	}

	return nil
}

// TaskCount returns the total number of non-deleted tasks in the database.
func (db *DB) TaskCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM tasks WHERE deleted_at IS NULL").Scan(&count)
	return count, err
}

// columnExists checks if a column exists in a table. It properly closes the
// rows cursor before returning, avoiding deadlocks with MaxOpenConns(1).
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(
		fmt.Sprintf("SELECT name FROM pragma_table_info('%s') WHERE name = ?", table),
		column,
	)
	if err != nil {
		return false, err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}
