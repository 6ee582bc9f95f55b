// Package docstore stores a corpus of XML documents in a single SQLite
// file and evaluates XPath expressions over it entry by entry.
//
// Entries are named by their 1-based position, zero-padded to eight
// digits, so lexical order is corpus order.
package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"iter"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	_ "modernc.org/sqlite"

	"github.com/standardbeagle/treesearch/internal/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	name     TEXT PRIMARY KEY,
	contents BLOB NOT NULL
)`

// EntryName returns the name of the n-th entry (1-based).
func EntryName(n int) string {
	return fmt.Sprintf("%08d", n)
}

// EntryNumber parses an entry name back to its 1-based position.
func EntryNumber(name string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(name))
}

// Entry is one query match: the entry it was found in, the XML of the
// matched node and the whole document.
type Entry struct {
	Name     string
	Contents []byte
	Document []byte
}

// SentNo returns the 1-based position of the entry, or 0 if the name is
// not numeric.
func (e Entry) SentNo() int {
	n, err := EntryNumber(e.Name)
	if err != nil {
		return 0
	}
	return n
}

type config struct {
	busyTimeout int
	cacheSize   int
}

// Option customises Open and Create.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithCacheSize sets PRAGMA cache_size; negative values are KiB.
func WithCacheSize(pages int) Option { return func(c *config) { c.cacheSize = pages } }

// dsn builds a URI filename whose _pragma parameters the driver applies to
// every pooled connection.
func dsn(path string, cfg config, pragmas ...string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.busyTimeout))
	if cfg.cacheSize != 0 {
		q.Add("_pragma", fmt.Sprintf("cache_size(%d)", cfg.cacheSize))
	}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

func openDB(path string, opts []Option, pragmas ...string) (*sql.DB, error) {
	cfg := config{busyTimeout: 5000}
	for _, o := range opts {
		o(&cfg)
	}

	db, err := sql.Open("sqlite", dsn(path, cfg, pragmas...))
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewFileError("open", path, err)
	}
	return db, nil
}

// Store is an open, read-only document store.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens an existing document store.
func Open(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	db, err := openDB(path, opts, "query_only(1)")
	if err != nil {
		return nil, err
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'entries'`).Scan(&name)
	if err != nil {
		db.Close()
		return nil, errors.NewFileError("open", path, fmt.Errorf("not a document store: %w", err))
	}
	return &Store{path: path, db: db}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Len returns the number of entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, errors.NewFileError("count", s.path, err)
	}
	return n, nil
}

// Read returns the document stored under name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	var contents []byte
	err := s.db.QueryRowContext(ctx, `SELECT contents FROM entries WHERE name = ?`, name).Scan(&contents)
	if err == sql.ErrNoRows {
		return nil, errors.NewFileError("read", s.path, fmt.Errorf("no entry %q", name))
	}
	if err != nil {
		return nil, errors.NewFileError("read", s.path, err)
	}
	return contents, nil
}

// CompileQuery compiles an XPath expression.
func CompileQuery(expr string) (*xpath.Expr, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, errors.NewSearchError(expr, err)
	}
	return compiled, nil
}

// Query evaluates expr against every entry in corpus order and yields one
// Entry per matching node. Entries are read lazily; stopping the iteration
// stops the scan.
func (s *Store) Query(ctx context.Context, expr *xpath.Expr) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT name, contents FROM entries ORDER BY name`)
		if err != nil {
			yield(Entry{}, errors.NewFileError("query", s.path, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			var contents []byte
			if err := rows.Scan(&name, &contents); err != nil {
				yield(Entry{}, errors.NewFileError("query", s.path, err))
				return
			}
			doc, err := xmlquery.Parse(bytes.NewReader(contents))
			if err != nil {
				yield(Entry{}, errors.NewParseError(s.path, 0, name, err))
				return
			}
			for _, node := range xmlquery.QuerySelectorAll(doc, expr) {
				if !yield(Entry{Name: name, Contents: []byte(node.OutputXML(true)), Document: contents}, nil) {
					return
				}
			}
		}
		if err := rows.Err(); err != nil {
			yield(Entry{}, errors.NewFileError("query", s.path, err))
		}
	}
}
