package storage

import "database/sql"

// migrateV001 creates the chunk table. Each row holds one encoded record;
// seq preserves write order so reads come back oldest first.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_chunks (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			url        TEXT NOT NULL,
			visited_at INTEGER NOT NULL,
			chunk      BLOB NOT NULL,
			written_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_history_chunks_visited_at ON history_chunks(visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_chunks_url        ON history_chunks(url)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
