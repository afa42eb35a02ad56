package samplelog

import (
	"database/sql"
	"fmt"

	"github.com/sweeney/machine-sensor/internal/logic"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS samples (
	machine_id INTEGER NOT NULL,
	elapsed    REAL    NOT NULL,
	x          REAL    NOT NULL,
	y          REAL    NOT NULL,
	z          REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_machine ON samples (machine_id, elapsed);
`

// SQLite stores samples in a single table keyed by machine.
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
}

// NewSQLite opens (or creates) the database at path and deletes the
// previous run's rows for every machine in ids.
func NewSQLite(path string, ids []int) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=FULL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &PersistenceError{Op: "pragma", Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &PersistenceError{Op: "schema", Err: err}
	}
	for _, id := range ids {
		if _, err := db.Exec(`DELETE FROM samples WHERE machine_id = ?`, id); err != nil {
			db.Close()
			return nil, &PersistenceError{MachineID: id, Op: "truncate", Err: err}
		}
	}

	insert, err := db.Prepare(`INSERT INTO samples (machine_id, elapsed, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, &PersistenceError{Op: "prepare", Err: err}
	}
	return &SQLite{db: db, insert: insert}, nil
}

// Append inserts one row in its own transaction.
func (s *SQLite) Append(machineID int, elapsed float64, sample logic.Sample) error {
	if _, err := s.insert.Exec(machineID, elapsed, sample.X, sample.Y, sample.Z); err != nil {
		return &PersistenceError{MachineID: machineID, Op: "insert", Err: err}
	}
	return nil
}

// Count returns the number of rows stored for machineID.
func (s *SQLite) Count(machineID int) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE machine_id = ?`, machineID).Scan(&n)
	return n, err
}

// Close releases the database.
func (s *SQLite) Close() error {
	s.insert.Close()
	return s.db.Close()
}
