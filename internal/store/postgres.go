package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("PostgresStore initialized")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) IsBanned(userID int64) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM banned_users WHERE user_id = $1`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.Error("PostgresStore IsBanned query failed", "error", err, "user_id", userID)
		return false
	}
	return true
}

func (s *PostgresStore) Ban(userID int64) (bool, error) {
	res, err := s.db.Exec(`INSERT INTO banned_users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		slog.Error("PostgresStore Ban failed", "error", err, "user_id", userID)
		return false, fmt.Errorf("failed to ban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("PostgresStore Ban rows affected failed", "error", err, "user_id", userID)
		return false, err
	}
	slog.Debug("PostgresStore Ban succeeded", "user_id", userID, "newly", affected > 0)
	return affected > 0, nil
}

func (s *PostgresStore) Unban(userID int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM banned_users WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore Unban failed", "error", err, "user_id", userID)
		return false, fmt.Errorf("failed to unban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("PostgresStore Unban rows affected failed", "error", err, "user_id", userID)
		return false, err
	}
	slog.Debug("PostgresStore Unban succeeded", "user_id", userID, "existed", affected > 0)
	return affected > 0, nil
}

func (s *PostgresStore) RecordCorrelation(c models.Correlation) error {
	_, err := s.db.Exec(
		`INSERT INTO correlations (admin_chat_id, admin_message_id, user_chat_id, user_message_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (admin_chat_id, admin_message_id)
		 DO UPDATE SET user_chat_id = EXCLUDED.user_chat_id, user_message_id = EXCLUDED.user_message_id`,
		c.AdminChatID, c.AdminMessageID, c.UserChatID, c.UserMessageID)
	if err != nil {
		slog.Error("PostgresStore RecordCorrelation failed", "error", err,
			"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID)
		return fmt.Errorf("failed to record correlation: %w", err)
	}
	slog.Debug("PostgresStore RecordCorrelation succeeded",
		"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID)
	return nil
}

func (s *PostgresStore) ResolveCorrelation(adminChatID int64, adminMessageID int) (models.Origin, bool) {
	var origin models.Origin
	err := s.db.QueryRow(
		`SELECT user_chat_id, user_message_id FROM correlations WHERE admin_chat_id = $1 AND admin_message_id = $2`,
		adminChatID, adminMessageID).Scan(&origin.ChatID, &origin.MessageID)
	if err == sql.ErrNoRows {
		return models.Origin{}, false
	}
	if err != nil {
		slog.Error("PostgresStore ResolveCorrelation query failed", "error", err,
			"admin_chat_id", adminChatID, "admin_message_id", adminMessageID)
		return models.Origin{}, false
	}
	return origin, true
}

func (s *PostgresStore) BannedCount() int {
	return countRows(s.db, `SELECT COUNT(*) FROM banned_users`)
}

func (s *PostgresStore) CorrelationCount() int {
	return countRows(s.db, `SELECT COUNT(*) FROM correlations`)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
