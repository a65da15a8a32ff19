package database

import (
	"github.com/google/uuid"
)

// InsertTelemetry stores a client event. payload must be a JSON document.
func (db *DB) InsertTelemetry(event, payload string) (string, error) {
	if event == "" {
		event = "unknown"
	}
	if payload == "" {
		payload = "{}"
	}
	id := uuid.NewString()
	if _, err := db.conn.Exec(
		`INSERT INTO telemetry (id, event, payload) VALUES (?, ?, ?)`, id, event, payload,
	); err != nil {
		return "", err
	}
	return id, nil
}

// GetTelemetry returns events of one type, oldest first. An empty event returns all.
func (db *DB) GetTelemetry(event string) ([]TelemetryEvent, error) {
	query := `SELECT id, event, payload, received_at FROM telemetry`
	var args []any
	if event != "" {
		query += " WHERE event = ?"
		args = append(args, event)
	}
	query += " ORDER BY received_at, rowid"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TelemetryEvent
	for rows.Next() {
		var e TelemetryEvent
		if err := rows.Scan(&e.ID, &e.Event, &e.Payload, &e.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
