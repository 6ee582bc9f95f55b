package docstore

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/standardbeagle/treesearch/internal/errors"
)

// Builder appends documents to a new store inside one transaction.
type Builder struct {
	path string
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	n    int
}

// Create creates a new, empty document store at path. It fails if path
// already exists.
func Create(path string, opts ...Option) (*Builder, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errors.NewFileError("create", path, os.ErrExist)
	}
	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewFileError("create", path, err)
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.NewFileError("create", path, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO entries (name, contents) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, errors.NewFileError("create", path, err)
	}
	return &Builder{path: path, db: db, tx: tx, stmt: stmt}, nil
}

// Add stores contents as the next entry and returns its name.
func (b *Builder) Add(contents []byte) (string, error) {
	name := EntryName(b.n + 1)
	if _, err := b.stmt.Exec(name, contents); err != nil {
		return "", errors.NewFileError("add", b.path, fmt.Errorf("entry %s: %w", name, err))
	}
	b.n++
	return name, nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return b.n }

// Close commits the added entries and closes the store.
func (b *Builder) Close() error {
	b.stmt.Close()
	if err := b.tx.Commit(); err != nil {
		b.db.Close()
		return errors.NewFileError("commit", b.path, err)
	}
	return b.db.Close()
}
