package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per analyzed video
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			video TEXT NOT NULL,
			frame_count INTEGER NOT NULL DEFAULT 0,
			fps REAL NOT NULL DEFAULT 0,
			driver TEXT NOT NULL,
			sampling_mode TEXT NOT NULL,
			p1_character TEXT NOT NULL DEFAULT '',
			p2_character TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed')),
			error TEXT NOT NULL DEFAULT '',
			tuning TEXT NOT NULL DEFAULT '{}',
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,

		// Timeline slots table - the finalized frame meter, one row per frame
		`CREATE TABLE IF NOT EXISTS timeline_slots (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			slot_index INTEGER NOT NULL,
			window_index INTEGER NOT NULL,
			position INTEGER NOT NULL,
			p1_state TEXT NOT NULL,
			p2_state TEXT NOT NULL,
			PRIMARY KEY (run_id, slot_index)
		)`,

		// Input rows table - the merged input history of each player
		`CREATE TABLE IF NOT EXISTS input_rows (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			player INTEGER NOT NULL CHECK(player IN (0, 1)),
			sequence INTEGER NOT NULL,
			direction INTEGER NOT NULL,
			buttons TEXT NOT NULL,
			frames INTEGER NOT NULL,
			PRIMARY KEY (run_id, player, sequence)
		)`,

		// Detections table - moves found in the timeline
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			player INTEGER NOT NULL CHECK(player IN (0, 1)),
			move TEXT NOT NULL,
			status TEXT NOT NULL,
			start_slot INTEGER NOT NULL,
			end_slot INTEGER NOT NULL
		)`,

		// Round events table - round state transitions
		`CREATE TABLE IF NOT EXISTS round_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			frame INTEGER NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			winner INTEGER
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_detections_run_id ON detections(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_round_events_run_id ON round_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
