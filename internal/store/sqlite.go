package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the configured DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("SQLiteStore initialized", "dsn_set", dsn != "")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) IsBanned(userID int64) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM banned_users WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.Error("SQLiteStore IsBanned query failed", "error", err, "user_id", userID)
		return false
	}
	return true
}

func (s *SQLiteStore) Ban(userID int64) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO banned_users (user_id) VALUES (?)`, userID)
	if err != nil {
		slog.Error("SQLiteStore Ban failed", "error", err, "user_id", userID)
		return false, fmt.Errorf("failed to ban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("SQLiteStore Ban rows affected failed", "error", err, "user_id", userID)
		return false, err
	}
	slog.Debug("SQLiteStore Ban succeeded", "user_id", userID, "newly", affected > 0)
	return affected > 0, nil
}

func (s *SQLiteStore) Unban(userID int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM banned_users WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore Unban failed", "error", err, "user_id", userID)
		return false, fmt.Errorf("failed to unban user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("SQLiteStore Unban rows affected failed", "error", err, "user_id", userID)
		return false, err
	}
	slog.Debug("SQLiteStore Unban succeeded", "user_id", userID, "existed", affected > 0)
	return affected > 0, nil
}

func (s *SQLiteStore) RecordCorrelation(c models.Correlation) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO correlations (admin_chat_id, admin_message_id, user_chat_id, user_message_id) VALUES (?, ?, ?, ?)`,
		c.AdminChatID, c.AdminMessageID, c.UserChatID, c.UserMessageID)
	if err != nil {
		slog.Error("SQLiteStore RecordCorrelation failed", "error", err,
			"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID)
		return fmt.Errorf("failed to record correlation: %w", err)
	}
	slog.Debug("SQLiteStore RecordCorrelation succeeded",
		"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID)
	return nil
}

func (s *SQLiteStore) ResolveCorrelation(adminChatID int64, adminMessageID int) (models.Origin, bool) {
	var origin models.Origin
	err := s.db.QueryRow(
		`SELECT user_chat_id, user_message_id FROM correlations WHERE admin_chat_id = ? AND admin_message_id = ?`,
		adminChatID, adminMessageID).Scan(&origin.ChatID, &origin.MessageID)
	if err == sql.ErrNoRows {
		return models.Origin{}, false
	}
	if err != nil {
		slog.Error("SQLiteStore ResolveCorrelation query failed", "error", err,
			"admin_chat_id", adminChatID, "admin_message_id", adminMessageID)
		return models.Origin{}, false
	}
	return origin, true
}

func (s *SQLiteStore) BannedCount() int {
	return countRows(s.db, `SELECT COUNT(*) FROM banned_users`)
}

func (s *SQLiteStore) CorrelationCount() int {
	return countRows(s.db, `SELECT COUNT(*) FROM correlations`)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
