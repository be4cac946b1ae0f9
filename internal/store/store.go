// Package store provides persistent state backends for FeedbackBridge.
//
// Two concerns live here: the ban list (set of blocked user ids) and the
// correlation map (admin-side copy -> user-side original message). The
// default backend keeps both in human-readable JSON files; SQLite and
// PostgreSQL backends are available for deployments that already run a
// database. The backend is selected from the configured DSN.
package store

import (
	"strings"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
)

// Store is the persistence contract consumed by the relay engine and the
// command handlers.
//
// Mutations are write-through: the running state is updated first and the
// durable copy second. A non-nil error from Ban, Unban or
// RecordCorrelation reports a persistence failure only; the mutation has
// already taken effect for the running process, and callers are expected
// to log the error and continue.
type Store interface {
	// IsBanned reports whether the user is currently banned. Pure lookup.
	IsBanned(userID int64) bool
	// Ban adds the user to the ban list. newly is false when the user was
	// already banned, in which case nothing is persisted.
	Ban(userID int64) (newly bool, err error)
	// Unban removes the user from the ban list. existed is false when the
	// user was not banned, in which case nothing is persisted.
	Unban(userID int64) (existed bool, err error)

	// RecordCorrelation stores one admin-copy -> origin association.
	RecordCorrelation(c models.Correlation) error
	// ResolveCorrelation looks up the origin for an admin-side message.
	ResolveCorrelation(adminChatID int64, adminMessageID int) (models.Origin, bool)

	// BannedCount and CorrelationCount report current sizes for the
	// status API.
	BannedCount() int
	CorrelationCount() int

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN      string // database connection string; empty selects the file backend
	StateDir string // directory for the JSON file backend
}

// Option defines a configuration option for store construction.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithStateDir sets the directory holding the JSON state files.
func WithStateDir(dir string) Option {
	return func(o *Opts) {
		o.StateDir = dir
	}
}

// DetectDSNType reports "postgres" for PostgreSQL-style connection strings
// and "sqlite" for everything else (file paths and file: URIs).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore builds the store backend selected by the options: a DSN picks
// SQLite or PostgreSQL by DetectDSNType, no DSN selects the JSON file
// backend in the state directory.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewFileStore(opts...)
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}
