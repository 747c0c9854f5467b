package db

func (db *DB) initSchema() error {
	schema := `
	-- One row per journal file
	CREATE TABLE IF NOT EXISTS days (
		date TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		file_size INTEGER,
		file_mtime TEXT,
		session_count INTEGER DEFAULT 0,
		indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per session block
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		number INTEGER NOT NULL,
		time_label TEXT,
		topic TEXT,
		body TEXT,
		UNIQUE (date, number),
		FOREIGN KEY (date) REFERENCES days(date) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);

	-- Natural language search with porter stemming
	CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts USING fts5(
		topic,
		body,
		content=sessions,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync
	CREATE TRIGGER IF NOT EXISTS sessions_ai AFTER INSERT ON sessions BEGIN
		INSERT INTO sessions_fts(rowid, topic, body) VALUES (new.id, new.topic, new.body);
	END;

	CREATE TRIGGER IF NOT EXISTS sessions_ad AFTER DELETE ON sessions BEGIN
		INSERT INTO sessions_fts(sessions_fts, rowid, topic, body) VALUES ('delete', old.id, old.topic, old.body);
	END;

	CREATE TRIGGER IF NOT EXISTS sessions_au AFTER UPDATE ON sessions BEGIN
		INSERT INTO sessions_fts(sessions_fts, rowid, topic, body) VALUES ('delete', old.id, old.topic, old.body);
		INSERT INTO sessions_fts(rowid, topic, body) VALUES (new.id, new.topic, new.body);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
