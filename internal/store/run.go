package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	// RunRunning marks a run still being analyzed.
	RunRunning RunStatus = "running"
	// RunCompleted marks a run whose results were saved.
	RunCompleted RunStatus = "completed"
	// RunFailed marks a run that stopped on an error.
	RunFailed RunStatus = "failed"
)

// Run is one analysis of a video.
type Run struct {
	ID           string
	Video        string
	FrameCount   int
	FPS          float64
	Driver       string
	SamplingMode string
	Characters   [2]string
	Status       RunStatus
	Error        string
	Tuning       string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

const runColumns = `id, video, frame_count, fps, driver, sampling_mode, p1_character, p2_character,
	status, error, tuning, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	r := &Run{}
	var status string
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.Video, &r.FrameCount, &r.FPS, &r.Driver, &r.SamplingMode,
		&r.Characters[0], &r.Characters[1], &status, &r.Error, &r.Tuning, &r.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return r, nil
}

// Create inserts a new run in the running state. A random ID is assigned
// when the run has none.
func (r *RunRepository) Create(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.StartedAt = time.Now()
	run.Status = RunRunning
	if run.Tuning == "" {
		run.Tuning = "{}"
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (id, video, frame_count, fps, driver, sampling_mode, p1_character, p2_character,
			status, error, tuning, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Video, run.FrameCount, run.FPS, run.Driver, run.SamplingMode,
		run.Characters[0], run.Characters[1], string(run.Status), run.Error, run.Tuning, run.StartedAt,
	)
	return err
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// FindByPrefix retrieves the run whose ID starts with prefix. It returns
// ErrNotFound unless exactly one run matches.
func (r *RunRepository) FindByPrefix(prefix string) (*Run, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// SetCharacters records the characters found in the video.
func (r *RunRepository) SetCharacters(id string, characters [2]string) error {
	return r.exec(`UPDATE runs SET p1_character = ?, p2_character = ? WHERE id = ?`,
		characters[0], characters[1], id)
}

// Complete marks a run as completed.
func (r *RunRepository) Complete(id string) error {
	return r.exec(`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(RunCompleted), time.Now(), id)
}

// Fail marks a run as failed with the error that stopped it.
func (r *RunRepository) Fail(id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.exec(`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(RunFailed), msg, time.Now(), id)
}

// Delete removes a run and all its results.
func (r *RunRepository) Delete(id string) error {
	return r.exec(`DELETE FROM runs WHERE id = ?`, id)
}

func (r *RunRepository) exec(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
