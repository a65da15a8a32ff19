package database

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM renders", &s.TotalRenders},
		{"SELECT COUNT(DISTINCT poi_id) FROM renders", &s.POIs},
		{"SELECT COUNT(*) FROM renders WHERE dry_run = 0", &s.ExecutedRenders},
		{"SELECT COUNT(*) FROM feedback", &s.Feedback},
		{"SELECT COUNT(*) FROM feedback WHERE was_helpful = 1", &s.HelpfulFeedback},
		{"SELECT COUNT(*) FROM telemetry", &s.TelemetryEvents},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
