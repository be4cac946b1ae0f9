package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
)

// File names used by the JSON backend inside the state directory.
const (
	// BanFileName is the ban list file.
	BanFileName = "banned.json"
	// CorrelationFileName is the correlation map file.
	CorrelationFileName = "message_map.json"
	// DefaultFilePermissions defines the permissions for state files.
	DefaultFilePermissions = 0644
	// DefaultDirPermissions defines the permissions for the state directory.
	DefaultDirPermissions = 0755
)

// FileStore keeps the ban list and correlation map in memory and mirrors
// every mutation to two JSON files. The in-memory state is authoritative:
// a failed write is reported to the caller but does not roll back.
type FileStore struct {
	mu           sync.RWMutex
	banned       map[int64]struct{}
	correlations map[string]models.Origin
	banPath      string
	mapPath      string
}

// NewFileStore creates a FileStore rooted at the configured state
// directory and loads any existing state files. Missing or unreadable
// files are logged and replaced with empty collections; the process keeps
// running in a degraded-but-functional state.
func NewFileStore(opts ...Option) (*FileStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	dir := cfg.StateDir
	if dir == "" {
		dir = "."
		slog.Debug("FileStore: no state directory configured, using working directory")
	}
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("FileStore: failed to create state directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	s := &FileStore{
		banned:       make(map[int64]struct{}),
		correlations: make(map[string]models.Origin),
		banPath:      filepath.Join(dir, BanFileName),
		mapPath:      filepath.Join(dir, CorrelationFileName),
	}
	s.loadBans()
	s.loadCorrelations()
	slog.Info("FileStore: state loaded", "banned", len(s.banned), "correlations", len(s.correlations), "dir", dir)
	return s, nil
}

// loadBans reads the ban list file into memory. Failures are non-fatal.
func (s *FileStore) loadBans() {
	data, err := os.ReadFile(s.banPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("FileStore: ban list file not present, starting empty", "path", s.banPath)
		} else {
			slog.Error("FileStore: failed to read ban list, starting empty", "error", err, "path", s.banPath)
		}
		return
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		slog.Error("FileStore: failed to parse ban list, starting empty", "error", err, "path", s.banPath)
		return
	}
	for _, id := range ids {
		s.banned[id] = struct{}{}
	}
	slog.Debug("FileStore: ban list loaded", "count", len(s.banned))
}

// loadCorrelations reads the correlation map file into memory. Entries
// with malformed keys or values are skipped and logged; failures are
// non-fatal.
func (s *FileStore) loadCorrelations() {
	data, err := os.ReadFile(s.mapPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("FileStore: correlation map file not present, starting empty", "path", s.mapPath)
		} else {
			slog.Error("FileStore: failed to read correlation map, starting empty", "error", err, "path", s.mapPath)
		}
		return
	}
	var raw map[string][2]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Error("FileStore: failed to parse correlation map, starting empty", "error", err, "path", s.mapPath)
		return
	}
	for key, value := range raw {
		if _, _, err := models.ParseCorrelationKey(key); err != nil {
			slog.Warn("FileStore: skipping malformed correlation key", "error", err, "key", key)
			continue
		}
		s.correlations[key] = models.Origin{ChatID: value[0], MessageID: int(value[1])}
	}
	slog.Debug("FileStore: correlation map loaded", "count", len(s.correlations))
}

// IsBanned reports whether the user is banned.
func (s *FileStore) IsBanned(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, banned := s.banned[userID]
	return banned
}

// Ban adds the user to the ban list and persists the full set.
func (s *FileStore) Ban(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.banned[userID]; exists {
		slog.Debug("FileStore.Ban: user already banned", "user_id", userID)
		return false, nil
	}
	s.banned[userID] = struct{}{}
	err := s.saveBansLocked()
	slog.Info("FileStore.Ban: user banned", "user_id", userID, "total", len(s.banned))
	return true, err
}

// Unban removes the user from the ban list and persists the full set.
func (s *FileStore) Unban(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.banned[userID]; !exists {
		slog.Debug("FileStore.Unban: user not banned", "user_id", userID)
		return false, nil
	}
	delete(s.banned, userID)
	err := s.saveBansLocked()
	slog.Info("FileStore.Unban: user unbanned", "user_id", userID, "total", len(s.banned))
	return true, err
}

// RecordCorrelation inserts one entry and rewrites the full snapshot.
func (s *FileStore) RecordCorrelation(c models.Correlation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correlations[c.Key()] = models.Origin{ChatID: c.UserChatID, MessageID: c.UserMessageID}
	err := s.saveCorrelationsLocked()
	slog.Debug("FileStore.RecordCorrelation: entry recorded",
		"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID, "total", len(s.correlations))
	return err
}

// ResolveCorrelation looks up the origin for an admin-side message id.
func (s *FileStore) ResolveCorrelation(adminChatID int64, adminMessageID int) (models.Origin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	origin, found := s.correlations[models.CorrelationKey(adminChatID, adminMessageID)]
	return origin, found
}

// BannedCount returns the number of banned users.
func (s *FileStore) BannedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.banned)
}

// CorrelationCount returns the number of recorded correlations.
func (s *FileStore) CorrelationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.correlations)
}

// Close is a no-op for the file backend; every mutation is already flushed.
func (s *FileStore) Close() error {
	return nil
}

// saveBansLocked writes the ban list snapshot. Caller holds the lock.
func (s *FileStore) saveBansLocked() error {
	ids := make([]int64, 0, len(s.banned))
	for id := range s.banned {
		ids = append(ids, id)
	}
	// Deterministic output keeps the file diffable across rewrites.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if err := writeJSONSnapshot(s.banPath, ids); err != nil {
		slog.Error("FileStore: failed to persist ban list", "error", err, "path", s.banPath)
		return fmt.Errorf("failed to persist ban list: %w", err)
	}
	return nil
}

// saveCorrelationsLocked writes the correlation map snapshot. Caller holds
// the lock.
func (s *FileStore) saveCorrelationsLocked() error {
	raw := make(map[string][2]int64, len(s.correlations))
	for key, origin := range s.correlations {
		raw[key] = [2]int64{origin.ChatID, int64(origin.MessageID)}
	}
	if err := writeJSONSnapshot(s.mapPath, raw); err != nil {
		slog.Error("FileStore: failed to persist correlation map", "error", err, "path", s.mapPath)
		return fmt.Errorf("failed to persist correlation map: %w", err)
	}
	return nil
}

// writeJSONSnapshot writes v as indented JSON via a temp file and rename,
// so a crash mid-write never leaves a truncated snapshot behind.
func writeJSONSnapshot(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}
	return nil
}
