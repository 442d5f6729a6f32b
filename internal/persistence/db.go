// Package persistence stores the observables of delay sweeps in SQLite.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Run is one sweep of one model.
type Run struct {
	ID       string `db:"id"`
	Model    string `db:"model"`
	Started  string `db:"started_at"`
	Settings string `db:"settings"`
}

// Point is the observable at one delay.
type Point struct {
	Delay     float64 `db:"delay"`
	Re        float64 `db:"value_re"`
	Im        float64 `db:"value_im"`
	Solutions int     `db:"solutions"`
}

func NewPoint(delay float64, v complex128, solutions int) Point {
	return Point{Delay: delay, Re: real(v), Im: imag(v), Solutions: solutions}
}

func (p Point) Value() complex128 { return complex(p.Re, p.Im) }

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		started_at TEXT NOT NULL,
		settings TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		delay REAL NOT NULL,
		value_re REAL NOT NULL,
		value_im REAL NOT NULL,
		solutions INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_points_run ON points(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run of model; settings are stored as JSON.
func (db *DB) StartRun(model string, settings any) (string, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, model, started_at, settings) VALUES (?, ?, ?, ?)",
		id, model, time.Now().UTC().Format(time.RFC3339), string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SavePoints appends points to a run in one transaction.
func (db *DB) SavePoints(runID string, points []Point) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO points
		(run_id, delay, value_re, value_im, solutions)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(runID, p.Delay, p.Re, p.Im, p.Solutions); err != nil {
			return fmt.Errorf("insert point %g: %w", p.Delay, err)
		}
	}
	return tx.Commit()
}

// Runs lists runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, model, started_at, settings FROM runs ORDER BY started_at, rowid")
	return runs, err
}

// Points returns the points of a run in insertion order.
func (db *DB) Points(runID string) ([]Point, error) {
	var points []Point
	err := db.conn.Select(&points,
		"SELECT delay, value_re, value_im, solutions FROM points WHERE run_id = ? ORDER BY id",
		runID,
	)
	return points, err
}
