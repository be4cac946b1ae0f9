// Package util holds small helpers shared across FeedbackBridge packages.
package util

import (
	"os"
	"strconv"
	"strings"
)

// ParseBoolEnv reads an environment variable as a boolean. Empty or unset
// values and values strconv cannot parse fall back to def.
func ParseBoolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

// GetenvOr reads an environment variable, returning def when unset or
// empty.
func GetenvOr(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}
