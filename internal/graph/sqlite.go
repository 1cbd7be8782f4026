package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	kind  TEXT NOT NULL,
	label TEXT NOT NULL,
	props JSON NOT NULL DEFAULT '{}',
	PRIMARY KEY (kind, label)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS edges (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	from_kind  TEXT NOT NULL,
	from_label TEXT NOT NULL,
	to_kind    TEXT NOT NULL,
	to_label   TEXT NOT NULL,
	label      TEXT NOT NULL,
	props      JSON NOT NULL DEFAULT '{}',
	UNIQUE (from_kind, from_label, to_kind, to_label, label)
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_label);
`

// SQLiteStore keeps the derivation graph in a local SQLite file.
// Properties live in JSON columns and are updated with json_set.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Writes are strictly sequential, and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateNode(ctx context.Context, label, kind string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (kind, label) VALUES (?, ?)`, kind, label)
	return err
}

func (s *SQLiteStore) CreateEdge(ctx context.Context, fromLabel, fromKind, toLabel, toKind, edgeLabel string) error {
	if err := checkKind(fromKind); err != nil {
		return err
	}
	if err := checkKind(toKind); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range [][2]string{{fromKind, fromLabel}, {toKind, toLabel}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO nodes (kind, label) VALUES (?, ?)`, n[0], n[1]); err != nil {
			return err
		}
	}
	props, err := json.Marshal(map[string]string{EdgeLabelKey: edgeLabel, MoveKey: ""})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO edges (from_kind, from_label, to_kind, to_label, label, props)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fromKind, fromLabel, toKind, toLabel, edgeLabel, string(props)); err != nil {
		return err
	}
	return tx.Commit()
}

func jsonKey(key string) string {
	b, _ := json.Marshal(key)
	return "$." + string(b)
}

func (s *SQLiteStore) SetNodeProperty(ctx context.Context, kind, label, key, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE nodes SET props = json_set(props, ?, ?) WHERE kind = ? AND label = ?`,
		jsonKey(key), value, kind, label)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s node %q", ErrNotFound, kind, label)
	}
	return nil
}

func (s *SQLiteStore) SetEdgeProperty(ctx context.Context, edgeKey, edgeValue, key, value string) error {
	q := `UPDATE edges SET props = json_set(props, ?, ?) WHERE json_extract(props, ?) = ?`
	if key == EdgeLabelKey {
		q = `UPDATE edges SET props = json_set(props, ?, ?), label = ?2 WHERE json_extract(props, ?) = ?`
	}
	res, err := s.db.ExecContext(ctx, q, jsonKey(key), value, jsonKey(edgeKey), edgeValue)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: edge with %s=%q", ErrNotFound, edgeKey, edgeValue)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM edges; DELETE FROM nodes;`); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveRedundantNodes(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	merges := redundantMerges(snap)
	if len(merges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for dup, keep := range merges {
		// Redirect incoming edges; any that would duplicate an existing
		// edge on the survivor are left behind and removed below.
		if _, err := tx.ExecContext(ctx, `
			UPDATE OR IGNORE edges SET to_kind = ?, to_label = ?
			WHERE to_kind = ? AND to_label = ?`,
			keep.kind, keep.label, dup.kind, dup.label); err != nil {
			return fmt.Errorf("redirect edges of %s: %w", dup, err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM edges
			WHERE (to_kind = ? AND to_label = ?) OR (from_kind = ? AND from_label = ?)`,
			dup.kind, dup.label, dup.kind, dup.label); err != nil {
			return fmt.Errorf("drop edges of %s: %w", dup, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM nodes WHERE kind = ? AND label = ?`, dup.kind, dup.label); err != nil {
			return fmt.Errorf("drop node %s: %w", dup, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AllPaths(ctx context.Context, start, end string) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return findPaths(ctx, snap, start, end, false)
}

func (s *SQLiteStore) ShortestPaths(ctx context.Context, start, end string) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return findPaths(ctx, snap, start, end, true)
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, label, props FROM nodes ORDER BY label, kind`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	for rows.Next() {
		var n NodeRecord
		var props string
		if err := rows.Scan(&n.Kind, &n.Label, &props); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(props), &n.Properties); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode props of %s: %w", n.Label, err)
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT from_kind, from_label, to_kind, to_label, label, props
		FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var e EdgeRecord
		var props string
		if err := rows.Scan(&e.FromKind, &e.From, &e.ToKind, &e.To, &e.Label, &props); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
			return nil, fmt.Errorf("decode props of edge %s: %w", e.Label, err)
		}
		snap.Edges = append(snap.Edges, e)
	}
	return snap, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
