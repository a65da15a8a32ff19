package database

import (
	"database/sql"

	"github.com/google/uuid"
)

// InsertFeedback stores a helpfulness vote and returns its id.
func (db *DB) InsertFeedback(highlightID string, wasHelpful bool, context *string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		`INSERT INTO feedback (id, highlight_id, was_helpful, context) VALUES (?, ?, ?, ?)`,
		id, highlightID, boolToInt(wasHelpful), context,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetFeedbackForHighlight returns the votes on a highlight, oldest first.
func (db *DB) GetFeedbackForHighlight(highlightID string) ([]Feedback, error) {
	rows, err := db.conn.Query(
		`SELECT id, highlight_id, was_helpful, context, received_at
		FROM feedback WHERE highlight_id = ? ORDER BY received_at, rowid`, highlightID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		var helpful int
		if err := rows.Scan(&f.ID, &f.HighlightID, &helpful, &f.Context, &f.ReceivedAt); err != nil {
			return nil, err
		}
		f.WasHelpful = helpful != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetFeedbackCounts returns helpful and unhelpful vote counts for a highlight.
func (db *DB) GetFeedbackCounts(highlightID string) (helpful, unhelpful int, err error) {
	var h, u sql.NullInt64
	err = db.conn.QueryRow(
		`SELECT SUM(CASE WHEN was_helpful = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN was_helpful = 0 THEN 1 ELSE 0 END)
		FROM feedback WHERE highlight_id = ?`, highlightID,
	).Scan(&h, &u)
	return int(h.Int64), int(u.Int64), err
}
