// Package db pkg/db/db.go records the programs, probe values and events seen
// by a manager in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// SQL statements for database initialization.
	createTablesSQL = `
	-- Programs announced by the collector
	CREATE TABLE IF NOT EXISTS programs (
		full_id INTEGER PRIMARY KEY,
		host_id INTEGER NOT NULL,
		program_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	-- Probes of each program
	CREATE TABLE IF NOT EXISTS probes (
		full_id INTEGER NOT NULL,
		probe_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		storage_type TEXT NOT NULL,
		PRIMARY KEY (full_id, probe_id),
		FOREIGN KEY (full_id) REFERENCES programs(full_id) ON DELETE CASCADE
	);

	-- Probe samples
	CREATE TABLE IF NOT EXISTS probe_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_id INTEGER NOT NULL,
		probe_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL NOT NULL,
		received INTEGER NOT NULL
	);

	-- Log lines
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		level TEXT NOT NULL,
		text TEXT NOT NULL,
		received INTEGER NOT NULL
	);

	-- Indexes for better query performance
	CREATE INDEX IF NOT EXISTS idx_probe_values_probe
		ON probe_values(full_id, probe_id, id);
	CREATE INDEX IF NOT EXISTS idx_probe_values_received
		ON probe_values(received);
	CREATE INDEX IF NOT EXISTS idx_events_program
		ON events(full_id, id);
	CREATE INDEX IF NOT EXISTS idx_events_received
		ON events(received);
	`
)

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
}

// New creates a new database connection and initializes the schema.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	db := &DB{sqlDB}
	if err := db.initSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return db, nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}

func rollbackOnError(tx *sql.Tx, err error) {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("Error rolling back transaction: %v", rbErr)
		}
	}
}

// UpsertProgram records a program and its probes. Known probes are left
// untouched.
func (db *DB) UpsertProgram(program *ProgramRecord, probes []ProbeRecord) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	defer func() { rollbackOnError(tx, err) }()

	seen := program.LastSeen.UnixNano()

	_, err = tx.Exec(`
		INSERT INTO programs (full_id, host_id, program_id, name, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_id) DO UPDATE SET
			name = excluded.name,
			last_seen = excluded.last_seen
	`, program.FullID, program.HostID, program.ProgramID, program.Name, seen, seen)
	if err != nil {
		return fmt.Errorf("%w program: %w", ErrFailedToInsert, err)
	}

	for _, p := range probes {
		_, err = tx.Exec(`
			INSERT OR IGNORE INTO probes (full_id, probe_id, name, unit, storage_type)
			VALUES (?, ?, ?, ?, ?)
		`, program.FullID, p.ProbeID, p.Name, p.Unit, p.StorageType)
		if err != nil {
			return fmt.Errorf("%w probe: %w", ErrFailedToInsert, err)
		}
	}

	return tx.Commit()
}

// ListPrograms returns every recorded program ordered by full id.
func (db *DB) ListPrograms() ([]ProgramRecord, error) {
	rows, err := db.Query(`
		SELECT full_id, host_id, program_id, name, first_seen, last_seen
		FROM programs
		ORDER BY full_id`)
	if err != nil {
		return nil, fmt.Errorf("%w programs: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var programs []ProgramRecord

	for rows.Next() {
		var (
			p                   ProgramRecord
			firstSeen, lastSeen int64
		)

		if err := rows.Scan(&p.FullID, &p.HostID, &p.ProgramID, &p.Name, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("%w program: %w", ErrFailedToScan, err)
		}

		p.FirstSeen = time.Unix(0, firstSeen)
		p.LastSeen = time.Unix(0, lastSeen)
		programs = append(programs, p)
	}

	return programs, rows.Err()
}

// GetProbes returns the probes of a program ordered by id.
func (db *DB) GetProbes(fullID uint16) ([]ProbeRecord, error) {
	rows, err := db.Query(`
		SELECT probe_id, name, unit, storage_type
		FROM probes
		WHERE full_id = ?
		ORDER BY probe_id`, fullID)
	if err != nil {
		return nil, fmt.Errorf("%w probes: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var probes []ProbeRecord

	for rows.Next() {
		p := ProbeRecord{FullID: fullID}

		if err := rows.Scan(&p.ProbeID, &p.Name, &p.Unit, &p.StorageType); err != nil {
			return nil, fmt.Errorf("%w probe: %w", ErrFailedToScan, err)
		}

		probes = append(probes, p)
	}

	return probes, rows.Err()
}

// StoreValues inserts a batch of samples in one transaction.
func (db *DB) StoreValues(values []ProbeValue) (err error) {
	if len(values) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	defer func() { rollbackOnError(tx, err) }()

	stmt, err := tx.Prepare(`
		INSERT INTO probe_values (full_id, probe_id, timestamp, value, received)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w values: %w", ErrFailedToInsert, err)
	}
	defer stmt.Close()

	for i := range values {
		v := &values[i]

		if _, err = stmt.Exec(v.FullID, v.ProbeID, v.Timestamp, v.Value, v.Received.UnixNano()); err != nil {
			return fmt.Errorf("%w value: %w", ErrFailedToInsert, err)
		}
	}

	return tx.Commit()
}

// StoreEvent inserts one log line.
func (db *DB) StoreEvent(event *EventRecord) error {
	_, err := db.Exec(`
		INSERT INTO events (full_id, name, level, text, received)
		VALUES (?, ?, ?, ?, ?)`,
		event.FullID, event.Name, event.Level, event.Text, event.Received.UnixNano())
	if err != nil {
		return fmt.Errorf("%w event: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetProbeValues returns the last limit samples of a probe, oldest first.
func (db *DB) GetProbeValues(fullID uint16, probeID uint8, limit int) ([]ProbeValue, error) {
	rows, err := db.Query(`
		SELECT timestamp, value, received FROM (
			SELECT id, timestamp, value, received
			FROM probe_values
			WHERE full_id = ? AND probe_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, fullID, probeID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w values: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var values []ProbeValue

	for rows.Next() {
		var (
			v        = ProbeValue{FullID: fullID, ProbeID: probeID}
			received int64
		)

		if err := rows.Scan(&v.Timestamp, &v.Value, &received); err != nil {
			return nil, fmt.Errorf("%w value: %w", ErrFailedToScan, err)
		}

		v.Received = time.Unix(0, received)
		values = append(values, v)
	}

	return values, rows.Err()
}

// GetEvents returns the last limit log lines of a program, oldest first.
func (db *DB) GetEvents(fullID uint16, limit int) ([]EventRecord, error) {
	rows, err := db.Query(`
		SELECT name, level, text, received FROM (
			SELECT id, name, level, text, received
			FROM events
			WHERE full_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, fullID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w events: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var events []EventRecord

	for rows.Next() {
		var (
			e        = EventRecord{FullID: fullID}
			received int64
		)

		if err := rows.Scan(&e.Name, &e.Level, &e.Text, &received); err != nil {
			return nil, fmt.Errorf("%w event: %w", ErrFailedToScan, err)
		}

		e.Received = time.Unix(0, received)
		events = append(events, e)
	}

	return events, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("failed to close rows: %v", err)
	}
}
