package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/ir"
	"github.com/roach88/trackcse/internal/tracking"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one CSE run together with the notifications its listener
// handled.
type RunRecord struct {
	// ID is a UUIDv7 unless the store was opened with another
	// IDGenerator. RecordRun assigns one when empty.
	ID string `json:"id"`

	// Seq orders runs within a store. Assigned by RecordRun.
	Seq int64 `json:"seq"`

	Scenario     string           `json:"scenario,omitempty"`
	ModuleDigest string           `json:"module_digest"`
	Options      ir.DictAttr      `json:"options,omitempty"`
	Stats        cse.Stats        `json:"stats"`
	Error        string           `json:"error,omitempty"`
	Events       []tracking.Event `json:"events"`

	IRVersion   string `json:"ir_version"`
	PassVersion string `json:"pass_version"`
}

// RecordRun writes rec and its events in one transaction and returns the
// run ID. Empty versions default to the current ir versions.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = s.ids.NewID()
	}
	if rec.IRVersion == "" {
		rec.IRVersion = ir.IRVersion
	}
	if rec.PassVersion == "" {
		rec.PassVersion = ir.PassVersion
	}
	opts, err := marshalOptions(rec.Options)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin record run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next run seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, scenario, module_digest, options,
			visited, merged, erased_dead, error, ir_version, pass_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, seq, rec.Scenario, rec.ModuleDigest, opts,
		rec.Stats.Visited, rec.Stats.Merged, rec.Stats.ErasedDead,
		rec.Error, rec.IRVersion, rec.PassVersion)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", rec.ID, err)
	}

	for _, ev := range rec.Events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_events (run_id, seq, kind, op_id, op_kind, replacement_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, ev.Seq, string(ev.Kind), int64(ev.Op), ev.OpKind, int64(ev.Replacement))
		if err != nil {
			return "", fmt.Errorf("insert event %d of run %s: %w", ev.Seq, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// ReadRun loads a run and its events.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, runColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunRecord{}, err
	}
	rec.Events, err = s.readEvents(ctx, id)
	if err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every run ordered by seq, without events.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, runColumns+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// OpHistory returns every event naming op, across runs, in run order.
func (s *Store) OpHistory(ctx context.Context, op ir.OpID) ([]tracking.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.seq, e.kind, e.op_id, e.op_kind, e.replacement_id
		FROM run_events e JOIN runs r ON r.id = e.run_id
		WHERE e.op_id = ?
		ORDER BY r.seq ASC, e.seq ASC
	`, int64(op))
	if err != nil {
		return nil, fmt.Errorf("query history of op %d: %w", op, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

const runColumns = `
	SELECT id, seq, scenario, module_digest, options,
		visited, merged, erased_dead, error, ir_version, pass_version
	FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var opts string
	err := row.Scan(&rec.ID, &rec.Seq, &rec.Scenario, &rec.ModuleDigest, &opts,
		&rec.Stats.Visited, &rec.Stats.Merged, &rec.Stats.ErasedDead,
		&rec.Error, &rec.IRVersion, &rec.PassVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, err
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.Options, err = unmarshalOptions(opts)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) readEvents(ctx context.Context, runID string) ([]tracking.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, op_id, op_kind, replacement_id
		FROM run_events WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events of run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]tracking.Event, error) {
	events := []tracking.Event{}
	for rows.Next() {
		var ev tracking.Event
		var kind string
		var op, repl int64
		if err := rows.Scan(&ev.Seq, &kind, &op, &ev.OpKind, &repl); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = tracking.EventKind(kind)
		ev.Op = ir.OpID(op)
		ev.Replacement = ir.OpID(repl)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
