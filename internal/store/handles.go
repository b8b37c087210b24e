package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/trackcse/internal/ir"
	"github.com/roach88/trackcse/internal/tracking"
)

// Handles is the handles table viewed as a tracking.Mapping. Every call
// runs under the context it was created with.
type Handles struct {
	ctx context.Context
	db  *sql.DB
}

var (
	_ tracking.Mapping  = (*Handles)(nil)
	_ tracking.KeyIndex = (*Handles)(nil)
)

// Handles returns the handles table as a tracking.Mapping bound to ctx.
func (s *Store) Handles(ctx context.Context) *Handles {
	return &Handles{ctx: ctx, db: s.db}
}

// Insert implements tracking.Mapping. Existing pairs are left alone.
func (h *Handles) Insert(key tracking.Key, op ir.OpID) error {
	_, err := h.db.ExecContext(h.ctx, `
		INSERT INTO handles (handle_key, op_id) VALUES (?, ?)
		ON CONFLICT(handle_key, op_id) DO NOTHING
	`, string(key), int64(op))
	if err != nil {
		return fmt.Errorf("insert handle %s: %w", key, err)
	}
	return nil
}

// Remove implements tracking.Mapping.
func (h *Handles) Remove(key tracking.Key, op ir.OpID) error {
	_, err := h.db.ExecContext(h.ctx, `
		DELETE FROM handles WHERE handle_key = ? AND op_id = ?
	`, string(key), int64(op))
	if err != nil {
		return fmt.Errorf("remove handle %s: %w", key, err)
	}
	return nil
}

// Pairs implements tracking.Mapping.
func (h *Handles) Pairs() ([]tracking.Pair, error) {
	rows, err := h.db.QueryContext(h.ctx, `
		SELECT handle_key, op_id FROM handles
		ORDER BY handle_key COLLATE BINARY ASC, op_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query handles: %w", err)
	}
	defer rows.Close()

	pairs := []tracking.Pair{}
	for rows.Next() {
		var key string
		var op int64
		if err := rows.Scan(&key, &op); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		pairs = append(pairs, tracking.Pair{Key: tracking.Key(key), Op: ir.OpID(op)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handles: %w", err)
	}
	return pairs, nil
}

// KeysOf implements tracking.KeyIndex.
func (h *Handles) KeysOf(op ir.OpID) ([]tracking.Key, error) {
	rows, err := h.db.QueryContext(h.ctx, `
		SELECT handle_key FROM handles WHERE op_id = ?
		ORDER BY handle_key COLLATE BINARY ASC
	`, int64(op))
	if err != nil {
		return nil, fmt.Errorf("query keys of op %d: %w", op, err)
	}
	defer rows.Close()

	var keys []tracking.Key
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan handle key: %w", err)
		}
		keys = append(keys, tracking.Key(key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handle keys: %w", err)
	}
	return keys, nil
}

// ReplaceHandles clears the handles table and loads pairs in one
// transaction.
func (s *Store) ReplaceHandles(ctx context.Context, pairs []tracking.Pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace handles: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM handles`); err != nil {
		return fmt.Errorf("clear handles: %w", err)
	}
	for _, p := range pairs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO handles (handle_key, op_id) VALUES (?, ?)
			ON CONFLICT(handle_key, op_id) DO NOTHING
		`, string(p.Key), int64(p.Op)); err != nil {
			return fmt.Errorf("load handle %s: %w", p.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace handles: %w", err)
	}
	return nil
}
