package store

import (
	"database/sql"
	"fmt"
)

// Slot is one frame of a stored timeline. States are kept by name.
type Slot struct {
	Index    int
	Window   int
	Position int
	States   [2]string
}

// InputRow is one row of a player's stored input history.
type InputRow struct {
	Player    int
	Sequence  int
	Direction int
	Buttons   string
	Frames    int
}

// Detection is a stored move detection.
type Detection struct {
	ID        int64
	Player    int
	Move      string
	Status    string
	StartSlot int
	EndSlot   int
}

// RoundEvent is a stored round state transition. Winner is nil when the
// transition has no winner.
type RoundEvent struct {
	ID     int64
	Frame  int
	From   string
	To     string
	Winner *int
}

// Results groups everything an analysis produces for a run.
type Results struct {
	Timeline   []Slot
	Inputs     []InputRow
	Detections []Detection
	Rounds     []RoundEvent
}

// ResultRepository stores and loads the results of runs.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Save replaces the results of a run in a single transaction.
func (r *ResultRepository) Save(runID string, res *Results) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"timeline_slots", "input_rows", "detections", "round_events"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertAll(tx, `INSERT INTO timeline_slots (run_id, slot_index, window_index, position, p1_state, p2_state)
		VALUES (?, ?, ?, ?, ?, ?)`, len(res.Timeline), func(i int) []any {
		s := res.Timeline[i]
		return []any{runID, s.Index, s.Window, s.Position, s.States[0], s.States[1]}
	}); err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}

	if err := insertAll(tx, `INSERT INTO input_rows (run_id, player, sequence, direction, buttons, frames)
		VALUES (?, ?, ?, ?, ?, ?)`, len(res.Inputs), func(i int) []any {
		in := res.Inputs[i]
		return []any{runID, in.Player, in.Sequence, in.Direction, in.Buttons, in.Frames}
	}); err != nil {
		return fmt.Errorf("failed to save inputs: %w", err)
	}

	if err := insertAll(tx, `INSERT INTO detections (run_id, player, move, status, start_slot, end_slot)
		VALUES (?, ?, ?, ?, ?, ?)`, len(res.Detections), func(i int) []any {
		d := res.Detections[i]
		return []any{runID, d.Player, d.Move, d.Status, d.StartSlot, d.EndSlot}
	}); err != nil {
		return fmt.Errorf("failed to save detections: %w", err)
	}

	if err := insertAll(tx, `INSERT INTO round_events (run_id, frame, from_state, to_state, winner)
		VALUES (?, ?, ?, ?, ?)`, len(res.Rounds), func(i int) []any {
		e := res.Rounds[i]
		var winner any
		if e.Winner != nil {
			winner = *e.Winner
		}
		return []any{runID, e.Frame, e.From, e.To, winner}
	}); err != nil {
		return fmt.Errorf("failed to save round events: %w", err)
	}

	return tx.Commit()
}

func insertAll(tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// Load reads back every result of a run.
func (r *ResultRepository) Load(runID string) (*Results, error) {
	var res Results
	var err error
	if res.Timeline, err = r.Timeline(runID); err != nil {
		return nil, err
	}
	if res.Inputs, err = r.Inputs(runID); err != nil {
		return nil, err
	}
	if res.Detections, err = r.Detections(runID); err != nil {
		return nil, err
	}
	if res.Rounds, err = r.RoundEvents(runID); err != nil {
		return nil, err
	}
	return &res, nil
}

// Timeline retrieves the timeline of a run in slot order.
func (r *ResultRepository) Timeline(runID string) ([]Slot, error) {
	rows, err := r.db.Query(
		`SELECT slot_index, window_index, position, p1_state, p2_state
		 FROM timeline_slots WHERE run_id = ? ORDER BY slot_index`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.Index, &s.Window, &s.Position, &s.States[0], &s.States[1]); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Inputs retrieves the input history of a run, P1 first, oldest row first.
func (r *ResultRepository) Inputs(runID string) ([]InputRow, error) {
	rows, err := r.db.Query(
		`SELECT player, sequence, direction, buttons, frames
		 FROM input_rows WHERE run_id = ? ORDER BY player, sequence`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inputs []InputRow
	for rows.Next() {
		var in InputRow
		if err := rows.Scan(&in.Player, &in.Sequence, &in.Direction, &in.Buttons, &in.Frames); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

// Detections retrieves the move detections of a run in timeline order.
func (r *ResultRepository) Detections(runID string) ([]Detection, error) {
	rows, err := r.db.Query(
		`SELECT id, player, move, status, start_slot, end_slot
		 FROM detections WHERE run_id = ? ORDER BY start_slot, player, id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ID, &d.Player, &d.Move, &d.Status, &d.StartSlot, &d.EndSlot); err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// RoundEvents retrieves the round transitions of a run in frame order.
func (r *ResultRepository) RoundEvents(runID string) ([]RoundEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, frame, from_state, to_state, winner
		 FROM round_events WHERE run_id = ? ORDER BY frame, id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RoundEvent
	for rows.Next() {
		var e RoundEvent
		var winner sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Frame, &e.From, &e.To, &winner); err != nil {
			return nil, err
		}
		if winner.Valid {
			w := int(winner.Int64)
			e.Winner = &w
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
