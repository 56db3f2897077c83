package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store owns the database handle and exposes the gateway operations bound to it.
type Store struct {
	*Gateway

	db     *sqlx.DB
	driver string
	logger logrus.FieldLogger
}

// Open connects to the configured database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string, logger logrus.FieldLogger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	switch driver {
	case DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	s := NewStore(conn, logger)
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.WithField("driver", driver).Info("database ready")
	return s, nil
}

// NewStore wraps an already opened connection without touching the schema.
func NewStore(db *sqlx.DB, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		Gateway: &Gateway{ext: db, db: db},
		db:      db,
		driver:  db.DriverName(),
		logger:  logger,
	}
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_busy_timeout=5000&_foreign_keys=ON"
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", path)
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == DriverPostgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name VARCHAR(64) NOT NULL UNIQUE,
            display_name VARCHAR(64) NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS teams (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            admin_id INTEGER REFERENCES users(id),
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS users_to_teams (
            user_id INTEGER NOT NULL REFERENCES users(id),
            team_id INTEGER NOT NULL REFERENCES teams(id),
            PRIMARY KEY (user_id, team_id)
        );`,
	`CREATE TABLE IF NOT EXISTS boards (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            team_id INTEGER NOT NULL REFERENCES teams(id),
            status VARCHAR(10) NOT NULL DEFAULT 'OPEN',
            end_time DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            board_id INTEGER NOT NULL REFERENCES boards(id),
            user_id INTEGER REFERENCES users(id),
            status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_users_to_teams_team ON users_to_teams(team_id);`,
	`CREATE INDEX IF NOT EXISTS idx_boards_team ON boards(team_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            name VARCHAR(64) NOT NULL UNIQUE,
            display_name VARCHAR(64) NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS teams (
            id BIGSERIAL PRIMARY KEY,
            name VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            admin_id BIGINT REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS users_to_teams (
            user_id BIGINT NOT NULL REFERENCES users(id),
            team_id BIGINT NOT NULL REFERENCES teams(id),
            PRIMARY KEY (user_id, team_id)
        );`,
	`CREATE TABLE IF NOT EXISTS boards (
            id BIGSERIAL PRIMARY KEY,
            name VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            team_id BIGINT NOT NULL REFERENCES teams(id),
            status VARCHAR(10) NOT NULL DEFAULT 'OPEN',
            end_time TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS tasks (
            id BIGSERIAL PRIMARY KEY,
            title VARCHAR(64) NOT NULL UNIQUE,
            description VARCHAR(128) NOT NULL DEFAULT '',
            board_id BIGINT NOT NULL REFERENCES boards(id),
            user_id BIGINT REFERENCES users(id),
            status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_users_to_teams_team ON users_to_teams(team_id);`,
	`CREATE INDEX IF NOT EXISTS idx_boards_team ON boards(team_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id);`,
}
