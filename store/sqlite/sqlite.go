// Package sqlite persists the transcript and status records in a local
// SQLite file. Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/concord-labs/concord/core"
	"github.com/concord-labs/concord/logging"
	"github.com/concord-labs/concord/status"
	"github.com/concord-labs/concord/transcript"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a structured logger for the store.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements transcript.Store and status.Store backed by a local
// SQLite file. Both Save paths write a full snapshot: the in-memory log and
// tracker are the source of truth, the file reflects their latest
// successful write.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

var (
	_ transcript.Store = (*Store)(nil)
	_ status.Store     = (*Store)(nil)
)

// New opens (or creates) the SQLite file at dbPath. A single shared
// connection serializes all writers, eliminating SQLITE_BUSY errors from
// concurrent connections.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: logging.NoOpLogger{}}
	for _, o := range opts {
		o(s)
	}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("sqlite.open", "path", dbPath)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) init(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			complete INTEGER NOT NULL,
			created INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stream_state (
			k INTEGER PRIMARY KEY CHECK (k = 0),
			streaming_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS status_records (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			detail TEXT NOT NULL,
			count INTEGER NOT NULL,
			updated INTEGER NOT NULL
		)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save implements transcript.Store: it replaces the persisted message
// sequence and streaming pointer with the given snapshot.
func (s *Store) Save(snap transcript.Snapshot) error {
	start := time.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM stream_state`); err != nil {
		return err
	}
	for i, msg := range snap.Messages {
		if _, err := tx.Exec(
			`INSERT INTO messages (position, id, role, text, complete, created) VALUES (?, ?, ?, ?, ?, ?)`,
			i, msg.ID, string(msg.Role), msg.Text, boolToInt(msg.Complete), msg.Created.UnixMilli(),
		); err != nil {
			return err
		}
	}
	if snap.StreamingID != "" {
		if _, err := tx.Exec(`INSERT INTO stream_state (k, streaming_id) VALUES (0, ?)`, snap.StreamingID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("sqlite.save_transcript", "messages", len(snap.Messages), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Load implements transcript.Store.
func (s *Store) Load() (transcript.Snapshot, error) {
	var snap transcript.Snapshot
	rows, err := s.db.Query(`SELECT id, role, text, complete, created FROM messages ORDER BY position`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			msg      core.Message
			role     string
			complete int
			created  int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &complete, &created); err != nil {
			return snap, err
		}
		msg.Role = core.Role(role)
		msg.Complete = complete != 0
		msg.Created = time.UnixMilli(created)
		snap.Messages = append(snap.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	err = s.db.QueryRow(`SELECT streaming_id FROM stream_state WHERE k = 0`).Scan(&snap.StreamingID)
	if err != nil && err != sql.ErrNoRows {
		return snap, err
	}
	return snap, nil
}

// SaveStatus implements status.Store: it replaces all persisted status
// records with the given mapping.
func (s *Store) SaveStatus(records map[string][]status.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM status_records`); err != nil {
		return err
	}
	total := 0
	for messageID, recs := range records {
		for _, rec := range recs {
			if _, err := tx.Exec(
				`INSERT INTO status_records (id, message_id, kind, state, detail, count, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, messageID, string(rec.Kind), string(rec.State), rec.Detail, rec.Count, rec.Updated.UnixMilli(),
			); err != nil {
				return err
			}
			total++
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("sqlite.save_status", "records", total)
	return nil
}

// LoadStatus implements status.Store.
func (s *Store) LoadStatus() (map[string][]status.Record, error) {
	rows, err := s.db.Query(`SELECT id, message_id, kind, state, detail, count, updated FROM status_records ORDER BY updated`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string][]status.Record)
	for rows.Next() {
		var (
			rec     status.Record
			kind    string
			state   string
			updated int64
		)
		if err := rows.Scan(&rec.ID, &rec.MessageID, &kind, &state, &rec.Detail, &rec.Count, &updated); err != nil {
			return nil, err
		}
		rec.Kind = status.Kind(kind)
		rec.State = status.State(state)
		rec.Updated = time.UnixMilli(updated)
		records[rec.MessageID] = append(records[rec.MessageID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
