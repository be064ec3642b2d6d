package infra

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver ("sqlite3") is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"
	_ "modernc.org/sqlite"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

const (
	encryptedDBName = "actor.db"
	plainDBName     = "actor-plain.db"
)

// SQLTrackerStore implements domain.TrackerStore on SQLite. The encrypted
// variant uses SQLCipher; the plain variant uses the pure-Go modernc driver.
type SQLTrackerStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedTrackerStore opens (or creates) a SQLCipher database in dataDir.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedTrackerStore(dataDir string, key []byte) (*SQLTrackerStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, encryptedDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	return openTrackerStore("sqlite3", dsn, dbPath)
}

// NewPlainTrackerStore opens (or creates) an unencrypted database in dataDir.
func NewPlainTrackerStore(dataDir string) (*SQLTrackerStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, plainDBName)
	return openTrackerStore("sqlite", dbPath, dbPath)
}

func openTrackerStore(driver, dsn, dbPath string) (*SQLTrackerStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify the key (or file) works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLTrackerStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLTrackerStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracker_records (
		tracker TEXT NOT NULL,
		day TEXT NOT NULL,
		value TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (tracker, day)
	);

	CREATE TABLE IF NOT EXISTS daemon_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pid INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		version TEXT DEFAULT '',
		last_heartbeat INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the record for (tracker, day), or nil if none exists.
func (s *SQLTrackerStore) Get(tracker, day string) (*domain.TrackerRecord, error) {
	var value string
	var recordedAt int64
	err := s.db.QueryRow(`SELECT value, recorded_at FROM tracker_records WHERE tracker = ? AND day = ?`,
		tracker, day).Scan(&value, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.TrackerRecord{
		Tracker:    tracker,
		Day:        day,
		Value:      value,
		RecordedAt: time.Unix(recordedAt, 0),
	}, nil
}

// Record stores a value. The first value recorded for a key wins.
func (s *SQLTrackerStore) Record(rec domain.TrackerRecord) error {
	if rec.Tracker == "" || rec.Day == "" {
		return domain.NewConfigError("record", "tracker and day are required")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO tracker_records (tracker, day, value, recorded_at)
		VALUES (?, ?, ?, ?)`,
		rec.Tracker, rec.Day, rec.Value, rec.RecordedAt.Unix(),
	)
	return err
}

// List returns all records of a tracker, newest day first.
func (s *SQLTrackerStore) List(tracker string) ([]domain.TrackerRecord, error) {
	rows, err := s.db.Query(`
		SELECT day, value, recorded_at FROM tracker_records
		WHERE tracker = ? ORDER BY day DESC`, tracker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TrackerRecord
	for rows.Next() {
		rec := domain.TrackerRecord{Tracker: tracker}
		var recordedAt int64
		if err := rows.Scan(&rec.Day, &rec.Value, &recordedAt); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.Unix(recordedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Heartbeat stores the daemon liveness timestamp.
func (s *SQLTrackerStore) Heartbeat(d domain.Daemon, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO daemon_state (id, pid, started_at, version, last_heartbeat)
		VALUES (1, ?, ?, ?, ?)`,
		d.PID, d.StartedAt.Unix(), d.Version, at.Unix(),
	)
	return err
}

// LastHeartbeat returns the last registered daemon, or nil.
func (s *SQLTrackerStore) LastHeartbeat() (*domain.Daemon, time.Time, error) {
	var pid int
	var startedAt, heartbeat int64
	var version string
	err := s.db.QueryRow(`SELECT pid, started_at, version, last_heartbeat FROM daemon_state WHERE id = 1`).
		Scan(&pid, &startedAt, &version, &heartbeat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return &domain.Daemon{
		PID:       pid,
		StartedAt: time.Unix(startedAt, 0),
		Version:   version,
	}, time.Unix(heartbeat, 0), nil
}

// Path returns the database file path.
func (s *SQLTrackerStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *SQLTrackerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// OpenTrackerStore opens the encrypted store, creating its key on first
// use, or the plain store when encrypted is false.
func OpenTrackerStore(dataDir string, encrypted bool) (*SQLTrackerStore, error) {
	if !encrypted {
		return NewPlainTrackerStore(dataDir)
	}
	key, err := EnsureKey(NewFileKeyProvider(dataDir))
	if err != nil {
		return nil, err
	}
	return NewEncryptedTrackerStore(dataDir, key)
}

// Ensure SQLTrackerStore implements domain.TrackerStore.
var _ domain.TrackerStore = (*SQLTrackerStore)(nil)
