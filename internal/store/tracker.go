package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/akuzmin/lifetrack/internal/model"
)

type TrackerStore struct {
	db *sql.DB
}

func NewTrackerStore(db *sql.DB) *TrackerStore {
	return &TrackerStore{db: db}
}

// --- Tracker methods ---

func scanTracker(scanner interface{ Scan(...any) error }) (*model.Tracker, error) {
	var t model.Tracker
	var target sql.NullFloat64

	err := scanner.Scan(&t.ID, &t.Name, &t.Type, &t.CurrentValue, &target, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if target.Valid {
		t.TargetValue = &target.Float64
	}
	return &t, nil
}

const trackerCols = `id, name, type, current_value, target_value, created_at`

func (s *TrackerStore) Create(name, trackerType string, targetValue *float64) (*model.Tracker, error) {
	var target sql.NullFloat64
	if targetValue != nil && trackerType != model.TrackerTypeMeasurement {
		target = sql.NullFloat64{Float64: *targetValue, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO trackers (name, type, target_value, current_value) VALUES (?, ?, ?, 0)`,
		name, trackerType, target,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tracker: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TrackerStore) GetByID(id int64) (*model.Tracker, error) {
	row := s.db.QueryRow(`SELECT `+trackerCols+` FROM trackers WHERE id = ?`, id)
	t, err := scanTracker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracker: %w", err)
	}
	return t, nil
}

func (s *TrackerStore) List() ([]model.Tracker, error) {
	rows, err := s.db.Query(`SELECT ` + trackerCols + ` FROM trackers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	var trackers []model.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracker: %w", err)
		}
		trackers = append(trackers, *t)
	}
	return trackers, rows.Err()
}

// Update overwrites name, current_value, and target_value unconditionally.
// Setting current_value here is a manual override; it bypasses the
// entry-derived bookkeeping.
func (s *TrackerStore) Update(id int64, name string, currentValue float64, targetValue *float64) (*model.Tracker, error) {
	var target sql.NullFloat64
	if targetValue != nil {
		target = sql.NullFloat64{Float64: *targetValue, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE trackers SET name = ?, current_value = ?, target_value = ? WHERE id = ?`,
		name, currentValue, target, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update tracker: %w", err)
	}
	return s.GetByID(id)
}

func (s *TrackerStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM trackers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tracker: %w", err)
	}
	return nil
}

// --- Entry methods ---

func scanEntry(scanner interface{ Scan(...any) error }) (*model.TrackerEntry, error) {
	var e model.TrackerEntry
	var notes sql.NullString

	err := scanner.Scan(
		&e.ID, &e.TrackerID, &e.Date, &e.EntryTime,
		&e.Value, &e.Status, &notes, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		e.Notes = &notes.String
	}
	return &e, nil
}

const entryCols = `id, tracker_id, date, entry_time, value, status, notes, created_at`

// CreateStatusEntry records a success/failure/reset entry for the given day
// and derives the tracker's current_value in the same transaction:
// success increments it, reset zeroes it, failure leaves it alone.
// Returns ErrDuplicateEntry if an entry with the same (tracker, date, status)
// already exists.
func (s *TrackerStore) CreateStatusEntry(trackerID int64, date, status string, notes *string) (*model.TrackerEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(
		`SELECT COUNT(1) FROM tracker_entries WHERE tracker_id = ? AND date = ? AND status = ?`,
		trackerID, date, status,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("check duplicate entry: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEntry
	}

	var n sql.NullString
	if notes != nil {
		n = sql.NullString{String: *notes, Valid: true}
	}

	result, err := tx.Exec(
		`INSERT INTO tracker_entries (tracker_id, date, entry_time, value, status, notes) VALUES (?, ?, ?, 1, ?, ?)`,
		trackerID, date, time.Now().Format("15:04:05"), status, n,
	)
	if err != nil {
		// Backstop for two submissions racing past the check
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	switch status {
	case model.EntryStatusSuccess:
		_, err = tx.Exec(`UPDATE trackers SET current_value = current_value + 1 WHERE id = ?`, trackerID)
	case model.EntryStatusReset:
		_, err = tx.Exec(`UPDATE trackers SET current_value = 0 WHERE id = ?`, trackerID)
	}
	if err != nil {
		return nil, fmt.Errorf("update current value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+entryCols+` FROM tracker_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// UpsertMeasurementEntry records a measured value for the given day. A second
// submission for the same day overwrites value and notes in place; correcting
// today's reading is the expected flow, so no conflict is ever raised. The
// tracker's current_value is not touched. The returned bool is true when a
// new entry was created.
func (s *TrackerStore) UpsertMeasurementEntry(trackerID int64, date string, value float64, notes *string) (*model.TrackerEntry, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n sql.NullString
	if notes != nil {
		n = sql.NullString{String: *notes, Valid: true}
	}

	var id int64
	created := false
	err = tx.QueryRow(
		`SELECT id FROM tracker_entries WHERE tracker_id = ? AND date = ?`,
		trackerID, date,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO tracker_entries (tracker_id, date, entry_time, value, status, notes) VALUES (?, ?, ?, ?, ?, ?)`,
			trackerID, date, time.Now().Format("15:04:05"), value, model.EntryStatusMeasurement, n,
		)
		if err != nil {
			return nil, false, fmt.Errorf("insert measurement: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, false, fmt.Errorf("last insert id: %w", err)
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("check existing measurement: %w", err)
	default:
		_, err = tx.Exec(
			`UPDATE tracker_entries SET value = ?, notes = ? WHERE id = ?`,
			value, n, id,
		)
		if err != nil {
			return nil, false, fmt.Errorf("update measurement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit measurement: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+entryCols+` FROM tracker_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, false, fmt.Errorf("get entry: %w", err)
	}
	return e, created, nil
}

// ListEntries returns the tracker's entries, newest day first and most
// recent time first within a day. A non-empty date filters to that exact day.
func (s *TrackerStore) ListEntries(trackerID int64, date string) ([]model.TrackerEntry, error) {
	query := `SELECT ` + entryCols + ` FROM tracker_entries WHERE tracker_id = ?`
	args := []any{trackerID}
	if date != "" {
		query += ` AND date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY date DESC, entry_time DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.TrackerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
