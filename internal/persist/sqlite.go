package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/synapse/internal/model"
)

// SQLiteStore keeps the document in a SQLite database. Save replaces every
// row inside one transaction, which is the whole-document-then-replace
// contract in relational form.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entries (
		id            TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		importance    REAL NOT NULL,
		access_count  INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		last_accessed TEXT NOT NULL,
		tags          TEXT,
		tier          TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS associations (
		node_id     TEXT NOT NULL,
		neighbor_id TEXT NOT NULL,
		weight      REAL NOT NULL,
		PRIMARY KEY (node_id, neighbor_id)
	);
	CREATE INDEX IF NOT EXISTS idx_associations_node ON associations(node_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load rebuilds the document. A database nothing was ever saved to reports
// absence via fs.ErrNotExist, like a missing file.
func (s *SQLiteStore) Load(ctx context.Context) (*Document, error) {
	var versionStr string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&versionStr)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no document saved: %w", fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil || version != Version {
		return nil, fmt.Errorf("document version %q: %w", versionStr, ErrUnknownVersion)
	}

	doc := NewDocument()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, importance, access_count, created_at, last_accessed, tags, tier
		FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		doc.Entries = append(doc.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	assocRows, err := s.db.QueryContext(ctx, `SELECT node_id, neighbor_id, weight FROM associations`)
	if err != nil {
		return nil, fmt.Errorf("read associations: %w", err)
	}
	defer assocRows.Close()
	for assocRows.Next() {
		var node, neighbor string
		var weight float64
		if err := assocRows.Scan(&node, &neighbor, &weight); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		adj := doc.Associations[node]
		if adj == nil {
			adj = make(map[string]float64)
			doc.Associations[node] = adj
		}
		adj[neighbor] = weight
	}
	if err := assocRows.Err(); err != nil {
		return nil, fmt.Errorf("read associations: %w", err)
	}
	return doc, nil
}

func scanEntry(rows *sql.Rows) (*model.Entry, error) {
	var e model.Entry
	var createdAt, lastAccessed string
	var tags sql.NullString
	if err := rows.Scan(&e.ID, &e.Content, &e.Importance, &e.AccessCount, &createdAt, &lastAccessed, &tags, &e.Tier); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if e.LastAccessed, err = time.Parse(time.RFC3339Nano, lastAccessed); err != nil {
		return nil, err
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// Save replaces the stored document inside a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM associations`); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}

	for _, e := range doc.Entries {
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, content, importance, access_count, created_at, last_accessed, tags, tier)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Content, e.Importance, e.AccessCount,
			e.CreatedAt.UTC().Format(time.RFC3339Nano),
			e.LastAccessed.UTC().Format(time.RFC3339Nano),
			string(tags), string(e.Tier),
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	for node, adj := range doc.Associations {
		for neighbor, weight := range adj {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO associations (node_id, neighbor_id, weight) VALUES (?, ?, ?)`,
				node, neighbor, weight,
			); err != nil {
				return fmt.Errorf("insert association %s->%s: %w", node, neighbor, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(doc.Version),
	); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
