// Package config loads the FeedbackBridge configuration file.
//
// The configuration carries the bot credential, the administrator set and
// every user-facing message template. There are no sensible defaults for
// credentials or templates, so a missing or malformed file is fatal at
// startup; only the slow-mode interval has a built-in default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSlowModeInterval is the slow-mode interval in seconds applied when
// the configuration does not specify one.
const DefaultSlowModeInterval = 3600

// Error variables for configuration validation
var (
	ErrMissingToken    = errors.New("bot token is not set")
	ErrNoAdmins        = errors.New("administrator list is empty")
	ErrMissingTemplate = errors.New("required message template is not set")
)

// Config holds the bot credential, administrator set, slow-mode interval
// and message templates. The JSON layout is flat, one key per template.
type Config struct {
	Token            string  `json:"token"`
	Admins           []int64 `json:"admins"`
	SlowModeInterval int     `json:"slow_mode_interval"` // seconds

	AdminGreeting       string `json:"admin_greeting"`
	UserGreeting        string `json:"user_greeting"`
	UserMessageAccepted string `json:"user_message_accepted"`
	SlowModeWarning     string `json:"slow_mode_warning"`
	BanInvalidFormat    string `json:"ban_invalid_format"`
	BanUsage            string `json:"ban_usage"`
	UserAlreadyBanned   string `json:"user_already_banned"`
	UserBanned          string `json:"user_banned"`
	UnbanInvalidFormat  string `json:"unban_invalid_format"`
	UnbanUsage          string `json:"unban_usage"`
	UserNotBanned       string `json:"user_not_banned"`
	UserUnbanned        string `json:"user_unbanned"`
	AdminForwardError   string `json:"admin_forward_error"`

	// ReplyNotFound, when set, is sent to an administrator whose reply
	// targets a message with no correlation entry. Empty keeps the
	// original silent behavior.
	ReplyNotFound string `json:"reply_not_found,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	slog.Debug("Config.Load: reading configuration file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Config.Load: failed to read configuration file", "error", err, "path", path)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Config{SlowModeInterval: DefaultSlowModeInterval}
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Error("Config.Load: failed to parse configuration file", "error", err, "path", path)
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.SlowModeInterval <= 0 {
		slog.Warn("Config.Load: non-positive slow_mode_interval, using default", "configured", cfg.SlowModeInterval, "default", DefaultSlowModeInterval)
		cfg.SlowModeInterval = DefaultSlowModeInterval
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Config.Load: configuration invalid", "error", err, "path", path)
		return nil, err
	}

	slog.Info("Config.Load: configuration loaded", "admins", len(cfg.Admins), "slow_mode_interval", cfg.SlowModeInterval)
	return &cfg, nil
}

// Validate checks that the credential, administrator set and every
// required template are present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if len(c.Admins) == 0 {
		return ErrNoAdmins
	}

	required := map[string]string{
		"admin_greeting":        c.AdminGreeting,
		"user_greeting":         c.UserGreeting,
		"user_message_accepted": c.UserMessageAccepted,
		"slow_mode_warning":     c.SlowModeWarning,
		"ban_invalid_format":    c.BanInvalidFormat,
		"ban_usage":             c.BanUsage,
		"user_already_banned":   c.UserAlreadyBanned,
		"user_banned":           c.UserBanned,
		"unban_invalid_format":  c.UnbanInvalidFormat,
		"unban_usage":           c.UnbanUsage,
		"user_not_banned":       c.UserNotBanned,
		"user_unbanned":         c.UserUnbanned,
		"admin_forward_error":   c.AdminForwardError,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingTemplate, name)
		}
	}
	return nil
}

// SlowModeDuration returns the slow-mode interval as a time.Duration.
func (c *Config) SlowModeDuration() time.Duration {
	return time.Duration(c.SlowModeInterval) * time.Second
}

// IsAdmin reports whether the given user id is in the administrator set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// ExpandTarget substitutes the {target_id} placeholder in a template.
func ExpandTarget(template string, targetID int64) string {
	return strings.ReplaceAll(template, "{target_id}", strconv.FormatInt(targetID, 10))
}

// ExpandForwardError substitutes the {admin_id} and {error} placeholders in
// the forward-error log template.
func ExpandForwardError(template string, adminID int64, err error) string {
	out := strings.ReplaceAll(template, "{admin_id}", strconv.FormatInt(adminID, 10))
	if err != nil {
		out = strings.ReplaceAll(out, "{error}", err.Error())
	}
	return out
}
