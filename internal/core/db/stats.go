package db

import (
	"database/sql"
)

// Stats represents index statistics
type Stats struct {
	TotalDays          int
	TotalSessions      int
	TotalBytes         int64
	FirstDay           string
	LastDay            string
	BusiestDay         string
	BusiestDaySessions int
	TopTopics          []TopicCount
}

// TopicCount is how many sessions carried a topic
type TopicCount struct {
	Topic string
	Count int
}

// GetStats returns comprehensive index statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow("SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM days").Scan(&stats.TotalDays, &stats.TotalBytes)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.TotalSessions)
	if err != nil {
		return nil, err
	}

	if stats.TotalDays == 0 {
		return stats, nil
	}

	var first, last sql.NullString
	err = db.QueryRow("SELECT MIN(date), MAX(date) FROM days").Scan(&first, &last)
	if err != nil {
		return nil, err
	}
	stats.FirstDay = first.String
	stats.LastDay = last.String

	// Busiest day; ties go to the most recent
	var busiest sql.NullString
	err = db.QueryRow(`
		SELECT date, session_count
		FROM days
		ORDER BY session_count DESC, date DESC
		LIMIT 1
	`).Scan(&busiest, &stats.BusiestDaySessions)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	stats.BusiestDay = busiest.String

	rows, err := db.Query(`
		SELECT topic, COUNT(*) AS n
		FROM sessions
		GROUP BY topic COLLATE NOCASE
		ORDER BY n DESC, MAX(date) DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		stats.TopTopics = append(stats.TopTopics, tc)
	}

	return stats, rows.Err()
}
