package db

import (
	"database/sql"
	"fmt"
	"time"
)

// DayRecord is the indexed state of one journal file.
type DayRecord struct {
	Date         string
	Path         string
	FileHash     string
	FileSize     int64
	FileMtime    time.Time
	SessionCount int
}

// SessionRecord is one indexed session block.
type SessionRecord struct {
	Date      string
	Number    int
	TimeLabel string
	Topic     string
	Body      string
}

// DayHash returns the file hash recorded for date, if the day is indexed.
func (db *DB) DayHash(date string) (string, bool, error) {
	var hash string
	err := db.conn.QueryRow(`SELECT file_hash FROM days WHERE date = ?`, date).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// ReplaceDay swaps the indexed sessions of a day for a fresh set.
func (db *DB) ReplaceDay(day DayRecord, sessions []SessionRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE date = ?`, day.Date); err != nil {
		return fmt.Errorf("clear sessions for %s: %w", day.Date, err)
	}

	_, err = tx.Exec(`
		INSERT INTO days (date, path, file_hash, file_size, file_mtime, session_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			path = excluded.path,
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			file_mtime = excluded.file_mtime,
			session_count = excluded.session_count,
			indexed_at = CURRENT_TIMESTAMP
	`, day.Date, day.Path, day.FileHash, day.FileSize, day.FileMtime.UTC().Format(time.RFC3339Nano), len(sessions))
	if err != nil {
		return fmt.Errorf("upsert day %s: %w", day.Date, err)
	}

	for _, s := range sessions {
		_, err = tx.Exec(`
			INSERT INTO sessions (date, number, time_label, topic, body)
			VALUES (?, ?, ?, ?, ?)
		`, day.Date, s.Number, s.TimeLabel, s.Topic, s.Body)
		if err != nil {
			return fmt.Errorf("insert session %s #%d: %w", day.Date, s.Number, err)
		}
	}

	return tx.Commit()
}

// PruneDays removes indexed days not present in keep and returns how many
// were removed.
func (db *DB) PruneDays(keep map[string]bool) (int, error) {
	days, err := db.ListDays()
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed := 0
	for _, d := range days {
		if keep[d.Date] {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM sessions WHERE date = ?`, d.Date); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM days WHERE date = ?`, d.Date); err != nil {
			return 0, err
		}
		removed++
	}
	return removed, tx.Commit()
}

// ListDays returns indexed days, oldest first.
func (db *DB) ListDays() ([]DayRecord, error) {
	rows, err := db.conn.Query(`
		SELECT date, path, file_hash, COALESCE(file_size, 0), file_mtime, session_count
		FROM days
		ORDER BY date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []DayRecord
	for rows.Next() {
		var d DayRecord
		var mtime sql.NullString
		if err := rows.Scan(&d.Date, &d.Path, &d.FileHash, &d.FileSize, &mtime, &d.SessionCount); err != nil {
			return nil, err
		}
		if mtime.Valid {
			d.FileMtime, _ = time.Parse(time.RFC3339Nano, mtime.String)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
