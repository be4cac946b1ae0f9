package store

import (
	"database/sql"
	"log/slog"
)

// countRows runs a COUNT(*) query and returns 0 on failure. Counts feed
// the status API only, so a broken count is logged rather than surfaced.
func countRows(db *sql.DB, query string) int {
	var count int
	if err := db.QueryRow(query).Scan(&count); err != nil {
		slog.Error("store: count query failed", "error", err, "query", query)
		return 0
	}
	return count
}
