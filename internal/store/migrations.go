package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Action events table - journal of actuated one-shot and alt-tab actions
		`CREATE TABLE IF NOT EXISTS action_events (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			fired_at DATETIME NOT NULL
		)`,

		// Capture sessions table - one row per speech capture session
		`CREATE TABLE IF NOT EXISTS capture_sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			bytes INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT ''
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_action_events_fired_at ON action_events(fired_at)`,
		`CREATE INDEX IF NOT EXISTS idx_capture_sessions_started_at ON capture_sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
