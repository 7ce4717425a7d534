package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/eventvision/internal/events/stats"
)

// Recording is one catalogued event file.
type Recording struct {
	RecordingID string `json:"recording_id"`
	Path        string `json:"path"`
	Label       string `json:"label,omitempty"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	Events      int    `json:"event_count"`
	On          int    `json:"on_count"`
	Off         int    `json:"off_count"`
	Overflows   int    `json:"overflow_count"`
	FirstUs     uint64 `json:"first_ts_us"`
	LastUs      uint64 `json:"last_ts_us"`
	CreatedAtNs int64  `json:"created_at_ns"`
}

// NewRecording fills a Recording from a stream summary.
func NewRecording(path, label string, sum stats.Summary, overflows int) *Recording {
	return &Recording{
		Path:      path,
		Label:     label,
		Width:     sum.Width,
		Height:    sum.Height,
		Events:    sum.Events,
		On:        sum.On,
		Off:       sum.Off,
		Overflows: overflows,
		FirstUs:   sum.First,
		LastUs:    sum.Last,
	}
}

// InsertRecording stores rec. An empty RecordingID gets a new UUID and a
// zero CreatedAtNs is stamped from the store clock.
func (s *Store) InsertRecording(rec *Recording) error {
	if rec.RecordingID == "" {
		rec.RecordingID = uuid.New().String()
	}
	if rec.CreatedAtNs == 0 {
		rec.CreatedAtNs = s.clock.Now().UnixNano()
	}

	query := `
		INSERT INTO recordings (
			recording_id, path, label, width, height,
			event_count, on_count, off_count, overflow_count,
			first_ts_us, last_ts_us, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		rec.RecordingID,
		rec.Path,
		nullString(rec.Label),
		rec.Width,
		rec.Height,
		rec.Events,
		rec.On,
		rec.Off,
		rec.Overflows,
		int64(rec.FirstUs),
		int64(rec.LastUs),
		rec.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

const selectRecording = `
	SELECT recording_id, path, label, width, height,
	       event_count, on_count, off_count, overflow_count,
	       first_ts_us, last_ts_us, created_at_ns
	FROM recordings
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(row scanner) (*Recording, error) {
	var rec Recording
	var label sql.NullString
	var first, last sql.NullInt64
	err := row.Scan(
		&rec.RecordingID,
		&rec.Path,
		&label,
		&rec.Width,
		&rec.Height,
		&rec.Events,
		&rec.On,
		&rec.Off,
		&rec.Overflows,
		&first,
		&last,
		&rec.CreatedAtNs,
	)
	if err != nil {
		return nil, err
	}
	rec.Label = label.String
	rec.FirstUs = uint64(first.Int64)
	rec.LastUs = uint64(last.Int64)
	return &rec, nil
}

// GetRecording retrieves a recording by id.
func (s *Store) GetRecording(id string) (*Recording, error) {
	rec, err := scanRecording(s.db.QueryRow(selectRecording+`WHERE recording_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

// ListRecordings returns recordings ordered by path. An empty label lists
// everything.
func (s *Store) ListRecordings(label string) ([]*Recording, error) {
	query := selectRecording
	var args []any
	if label != "" {
		query += `WHERE label = ? `
		args = append(args, label)
	}
	query += `ORDER BY path, created_at_ns`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recs, nil
}

// DeleteRecording removes a recording by id.
func (s *Store) DeleteRecording(id string) error {
	res, err := s.db.Exec(`DELETE FROM recordings WHERE recording_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
