package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "render history",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS renders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    render_id TEXT UNIQUE NOT NULL,
    poi_id TEXT NOT NULL,
    poi_name TEXT,
    locale TEXT,
    provider TEXT NOT NULL,
    manifest_path TEXT,
    payload_path TEXT,
    storyboard_path TEXT,
    response_path TEXT,
    signed_manifest_url TEXT,
    signed_video_url TEXT,
    asset_count INTEGER DEFAULT 0,
    dry_run INTEGER DEFAULT 1,
    manifest TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_renders_poi ON renders(poi_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "viewer feedback and telemetry",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS feedback (
    id TEXT PRIMARY KEY,
    highlight_id TEXT NOT NULL,
    was_helpful INTEGER NOT NULL,
    context TEXT,
    received_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS telemetry (
    id TEXT PRIMARY KEY,
    event TEXT NOT NULL,
    payload TEXT NOT NULL DEFAULT '{}',
    received_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feedback_highlight ON feedback(highlight_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_event ON telemetry(event);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
