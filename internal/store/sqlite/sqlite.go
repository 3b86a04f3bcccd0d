// Package sqlite persists sessions and analysis results in a local SQLite
// database so separate CLI invocations can share them.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/store"
	"github.com/Ace30/insightmate/internal/store/sqlite/migrations"
)

// DBName is the database file created inside the data directory.
const DBName = "insightmate.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store owns the database handle; Sessions and Results are views onto it.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database in dataDir, creating the directory and
// applying pending migrations.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dataDir, DBName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Sessions returns the session log backed by this store.
func (s *Store) Sessions() store.Sessions { return &sessionStore{db: s.db} }

// Results returns the analysis cache backed by this store.
func (s *Store) Results() store.Results { return &resultStore{db: s.db} }

func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(body)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

var (
	_ store.Sessions = (*sessionStore)(nil)
	_ store.Results  = (*resultStore)(nil)
)

type sessionStore struct {
	db *sql.DB
}

// Append inserts the session row if needed and the message in one transaction.
func (s *sessionStore) Append(ctx context.Context, id string, m store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO chat_sessions (id, created_at) VALUES (?, ?)",
		id, time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	var seq int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = ?", id).Scan(&seq); err != nil {
		return fmt.Errorf("next message sequence: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, seq, timestamp, input, output, intent)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, seq, m.Timestamp.UTC().Format(timeLayout), m.Input, m.Output, m.Intent); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return tx.Commit()
}

func (s *sessionStore) History(ctx context.Context, id string) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, input, output, intent FROM chat_messages
		WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	out := []store.Message{}
	for rows.Next() {
		var m store.Message
		var ts string
		if err := rows.Scan(&ts, &m.Input, &m.Output, &m.Intent); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if m.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing message time: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sessionStore) Get(ctx context.Context, id string) (*store.Session, error) {
	var created string
	err := s.db.QueryRowContext(ctx, "SELECT created_at FROM chat_sessions WHERE id = ?", id).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	sess := &store.Session{ID: id}
	if sess.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing session time: %w", err)
	}
	if sess.Messages, err = s.History(ctx, id); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionStore) Clear(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

type resultStore struct {
	db *sql.DB
}

func (s *resultStore) Put(ctx context.Context, e store.Entry) error {
	summary, err := json.Marshal(e.Summary)
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	result, err := json.Marshal(e.Analysis)
	if err != nil {
		return fmt.Errorf("marshalling analysis: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (key, source, created_at, summary, analysis)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			source = excluded.source,
			created_at = excluded.created_at,
			summary = excluded.summary,
			analysis = excluded.analysis`,
		e.Key, e.Source, e.CreatedAt.UTC().Format(timeLayout), string(summary), string(result))
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

func (s *resultStore) Get(ctx context.Context, key string) (*store.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT key, source, created_at, summary, analysis FROM analysis_results WHERE key = ?", key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *resultStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM analysis_results WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting result: %w", err)
	}
	return nil
}

func (s *resultStore) List(ctx context.Context) ([]store.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, source, created_at, summary, analysis FROM analysis_results ORDER BY created_at DESC, key")
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	out := []store.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*store.Entry, error) {
	var (
		e                        store.Entry
		created, summary, result string
	)
	if err := row.Scan(&e.Key, &e.Source, &created, &summary, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning result: %w", err)
	}
	var err error
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing result time: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &e.Summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	e.Analysis = &analysis.Result{}
	if err := json.Unmarshal([]byte(result), e.Analysis); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	return &e, nil
}
