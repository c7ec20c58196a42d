// Package blobstore keeps binary buffers in a SQLite database and serves
// them as a jxf.BufferResolver.
//
// The package registers the pure-Go SQLite driver. Programs must also link
// the SQLite build, usually with
//
//	import _ "github.com/ncruces/go-sqlite3/embed"
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/gogpu/jxf"
)

const schema = `
CREATE TABLE IF NOT EXISTS buffers (
    uri        TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    size       INTEGER NOT NULL,
    updated_at TEXT NOT NULL
)`

// Store is a uri-keyed buffer table. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s, err := New(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the buffers table if missing.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("blobstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores data under uri, replacing any previous buffer.
func (s *Store) Put(ctx context.Context, uri string, data []byte) error {
	if uri == "" {
		return errors.New("blobstore: empty uri")
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO buffers (uri, data, size, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (uri) DO UPDATE
        SET data = excluded.data, size = excluded.size, updated_at = excluded.updated_at
    `, uri, data, len(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("blobstore: put %s: %w", uri, err)
	}
	return nil
}

// Resolve returns the buffer stored under uri. An unknown uri fails with
// an error matching jxf.ErrNotFound.
func (s *Store) Resolve(ctx context.Context, uri string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM buffers WHERE uri = ?`, uri).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", jxf.ErrNotFound, uri)
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: get %s: %w", uri, err)
	}
	return data, nil
}

// Delete removes uri. It reports whether a buffer was removed.
func (s *Store) Delete(ctx context.Context, uri string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM buffers WHERE uri = ?`, uri)
	if err != nil {
		return false, fmt.Errorf("blobstore: delete %s: %w", uri, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Info describes a stored buffer.
type Info struct {
	URI       string    `json:"uri"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List returns every stored buffer, ordered by uri.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uri, size, updated_at FROM buffers ORDER BY uri`)
	if err != nil {
		return nil, fmt.Errorf("blobstore: list: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info    Info
			updated string
		)
		if err := rows.Scan(&info.URI, &info.Size, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("blobstore: %s: bad timestamp %q", info.URI, updated)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

var _ jxf.BufferResolver = (*Store)(nil)
