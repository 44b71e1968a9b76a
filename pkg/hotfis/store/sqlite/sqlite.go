// Package sqlite implements store.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ericzander/hotfis/pkg/hotfis/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and ensures the
// schema exists.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS engines (
	name TEXT PRIMARY KEY,
	mamdani_points INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS groups (
	engine TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	dmin REAL NOT NULL,
	dmax REAL NOT NULL,
	PRIMARY KEY(engine, name),
	FOREIGN KEY(engine) REFERENCES engines(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS functions (
	engine TEXT NOT NULL,
	group_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	template TEXT NOT NULL,
	params TEXT NOT NULL,
	levels TEXT,
	center REAL NOT NULL,
	PRIMARY KEY(engine, group_name, name),
	FOREIGN KEY(engine) REFERENCES engines(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS rules (
	engine TEXT NOT NULL,
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY(engine, position),
	FOREIGN KEY(engine) REFERENCES engines(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	engine TEXT NOT NULL,
	method TEXT NOT NULL,
	inputs TEXT NOT NULL,
	outputs TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveEngine inserts or replaces an engine definition and all its rows in
// a single transaction.
func (s *sqliteStore) SaveEngine(ctx context.Context, e store.Engine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO engines (name, mamdani_points) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET mamdani_points=excluded.mamdani_points;
`, e.Name, e.MamdaniPoints); err != nil {
		return err
	}

	// Replace children wholesale; the definition is small.
	for _, tbl := range []string{"groups", "functions", "rules"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+tbl+` WHERE engine=?`, e.Name); err != nil {
			return err
		}
	}

	if err := insertGroups(ctx, tx, e); err != nil {
		return err
	}
	if err := insertRules(ctx, tx, e); err != nil {
		return err
	}

	return tx.Commit()
}

func insertGroups(ctx context.Context, tx *sql.Tx, e store.Engine) error {
	gstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO groups (engine, position, name, dmin, dmax) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer gstmt.Close()
	fstmt, err := tx.PrepareContext(ctx, `
INSERT INTO functions (engine, group_name, position, name, kind, template, params, levels, center)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fstmt.Close()

	for gi, g := range e.Groups {
		if _, err := gstmt.ExecContext(ctx, e.Name, gi, g.Name, g.Min, g.Max); err != nil {
			return err
		}
		for fi, f := range g.Funcs {
			params, err := json.Marshal(f.Params)
			if err != nil {
				return err
			}
			var levels interface{}
			if f.Levels != nil {
				data, err := json.Marshal(f.Levels)
				if err != nil {
					return err
				}
				levels = string(data)
			}
			if _, err := fstmt.ExecContext(ctx, e.Name, g.Name, fi, f.Name,
				f.Kind, f.Template, string(params), levels, f.Center); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertRules(ctx context.Context, tx *sql.Tx, e store.Engine) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rules (engine, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, text := range e.Rules {
		if _, err := stmt.ExecContext(ctx, e.Name, i, text); err != nil {
			return err
		}
	}
	return nil
}

// GetEngine retrieves an engine definition by name.
func (s *sqliteStore) GetEngine(ctx context.Context, name string) (store.Engine, bool, error) {
	var e store.Engine
	err := s.db.QueryRowContext(ctx,
		`SELECT name, mamdani_points FROM engines WHERE name = ?`, name).
		Scan(&e.Name, &e.MamdaniPoints)
	if err == sql.ErrNoRows {
		return store.Engine{}, false, nil
	}
	if err != nil {
		return store.Engine{}, false, err
	}

	if e.Groups, err = s.loadGroups(ctx, name); err != nil {
		return store.Engine{}, false, err
	}
	if e.Rules, err = s.loadRules(ctx, name); err != nil {
		return store.Engine{}, false, err
	}
	return e, true, nil
}

func (s *sqliteStore) loadGroups(ctx context.Context, engine string) ([]store.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, dmin, dmax FROM groups WHERE engine=? ORDER BY position`, engine)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []store.Group
	for rows.Next() {
		var g store.Group
		if err := rows.Scan(&g.Name, &g.Min, &g.Max); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		if groups[i].Funcs, err = s.loadFuncs(ctx, engine, groups[i].Name); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *sqliteStore) loadFuncs(ctx context.Context, engine, group string) ([]store.Func, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, kind, template, params, levels, center
FROM functions WHERE engine=? AND group_name=? ORDER BY position`, engine, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fns []store.Func
	for rows.Next() {
		var (
			f      store.Func
			params string
			levels sql.NullString
		)
		if err := rows.Scan(&f.Name, &f.Kind, &f.Template, &params, &levels, &f.Center); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &f.Params); err != nil {
			return nil, err
		}
		if levels.Valid {
			if err := json.Unmarshal([]byte(levels.String), &f.Levels); err != nil {
				return nil, err
			}
		}
		fns = append(fns, f)
	}
	return fns, rows.Err()
}

func (s *sqliteStore) loadRules(ctx context.Context, engine string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM rules WHERE engine=? ORDER BY position`, engine)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// ListEngines returns stored engine names, sorted.
func (s *sqliteStore) ListEngines(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM engines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteEngine removes an engine and its rows.
func (s *sqliteStore) DeleteEngine(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM engines WHERE name=?`, name)
	return err
}

// SaveRun records an evaluation run.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	inputs, err := json.Marshal(r.Inputs)
	if err != nil {
		return err
	}
	outputs, err := json.Marshal(r.Outputs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, engine, method, inputs, outputs, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	engine=excluded.engine,
	method=excluded.method,
	inputs=excluded.inputs,
	outputs=excluded.outputs,
	created_at=excluded.created_at;
`, r.ID, r.Engine, r.Method, string(inputs), string(outputs),
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetRun retrieves a run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, engine, method, inputs, outputs, created_at FROM runs WHERE id=?`, id)
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns returns up to limit runs for an engine, most recent first.
func (s *sqliteStore) ListRuns(ctx context.Context, engine string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, engine, method, inputs, outputs, created_at
FROM runs
WHERE engine=?
ORDER BY id DESC
LIMIT ?;
`, engine, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(scan func(...interface{}) error) (store.Run, error) {
	var (
		r       store.Run
		inputs  string
		outputs string
		created string
	)
	if err := scan(&r.ID, &r.Engine, &r.Method, &inputs, &outputs, &created); err != nil {
		return store.Run{}, err
	}
	if err := json.Unmarshal([]byte(inputs), &r.Inputs); err != nil {
		return store.Run{}, err
	}
	if err := json.Unmarshal([]byte(outputs), &r.Outputs); err != nil {
		return store.Run{}, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = parsed
	}
	return r, nil
}
