// Package stylestore persists the content-addressed style records and
// key/value metadata a Transfuse extraction produces, so a later injection
// can rehydrate the original markup. It is the on-disk half of the
// StyleStore component, backed by state.sqlite3.
//
// Open goes through database/sql against the driver modernc.org/sqlite
// registers, rather than reimplementing a SQL engine.
package stylestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/transfuse/transfuse/core/hasher"
	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/internal/errs"
)

const schema = `
CREATE TABLE IF NOT EXISTS info (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS styles (
	tag   TEXT NOT NULL,
	hash  TEXT NOT NULL,
	otag  TEXT NOT NULL,
	ctag  TEXT NOT NULL,
	flags TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tag, hash)
);
`

// Store is a handle on one work directory's state.sqlite3.
type Store struct {
	db       *sql.DB
	readonly bool
	tx       *sql.Tx
}

// Open opens (creating if necessary) the style store at path. If readonly
// is true, the store is opened for reads only (the inject side: style and
// info records are read-only during injection).
func Open(path string, readonly bool) (*Store, error) {
	dsn := path
	if readonly {
		dsn += "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Fatal(errs.ErrStoreUnavailable, "open style store", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		sentinel := errs.ErrStoreUnavailable
		return nil, errs.Fatal(sentinel, "open style store", path, err)
	}
	if !readonly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, errs.Fatal(errs.ErrStoreCorrupt, "initialize schema", path, err)
		}
	} else if err := verifySchema(db); err != nil {
		db.Close()
		return nil, errs.Fatal(errs.ErrStoreCorrupt, "verify schema", path, err)
	}
	return &Store{db: db, readonly: readonly}, nil
}

func verifySchema(db *sql.DB) error {
	for _, table := range []string{"info", "styles"} {
		row := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		var n int
		if err := row.Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("missing table %q", table)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// exec returns the transaction's Exec if a Begin is in progress, else the
// db's own Exec — every write goes through one or the other.
func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.Exec(query, args...)
	}
	return s.db.Exec(query, args...)
}

func (s *Store) query(query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRow(query, args...)
	}
	return s.db.QueryRow(query, args...)
}

// Begin opens a scoped batch; all Put* calls until Commit are atomic.
func (s *Store) Begin() error {
	if s.readonly {
		return errs.Fatal(errs.ErrStoreError, "begin", "", fmt.Errorf("store is read-only"))
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Fatal(errs.ErrStoreError, "begin", "", err)
	}
	s.tx = tx
	return nil
}

// Commit finalizes the batch opened by Begin.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return errs.Fatal(errs.ErrStoreError, "commit", "", err)
	}
	return nil
}

// PutInfo upserts a key/value metadata pair.
func (s *Store) PutInfo(key, value string) error {
	_, err := s.exec(`INSERT INTO info(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errs.Fatal(errs.ErrStoreError, "put info", key, err)
	}
	return nil
}

// GetInfo retrieves a metadata value, returning ok=false if absent.
func (s *Store) GetInfo(key string) (value string, ok bool, err error) {
	row := s.query(`SELECT value FROM info WHERE key = ?`, key)
	if scanErr := row.Scan(&value); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errs.Fatal(errs.ErrStoreError, "get info", key, scanErr)
	}
	return value, true, nil
}

// PutStyle computes hash = EncodeURL64(Hash32(open + HASH_SEP + close)) and
// upserts (tag, hash) -> (open, close, flags). Two calls with identical
// (tag, open, close) return identical hashes.
func (s *Store) PutStyle(tag, open, close_, flags string) (string, error) {
	h := hasher.HashSeparated(open, string(marker.HashSep), close_)
	hash := hasher.EncodeURL64(hasher.Uint32Bytes(h))
	_, err := s.exec(`INSERT INTO styles(tag, hash, otag, ctag, flags) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(tag, hash) DO UPDATE SET otag = excluded.otag, ctag = excluded.ctag, flags = excluded.flags`,
		tag, hash, open, close_, flags)
	if err != nil {
		return "", errs.Fatal(errs.ErrStoreError, "put style", tag+":"+hash, err)
	}
	return hash, nil
}

// StyleRecord is one stored (open_fragment, close_fragment, flags) triple.
type StyleRecord struct {
	Open  string
	Close string
	Flags string
}

// HasFlag reports whether the flag character c is present (e.g. 'P' means
// "drop body on inject").
func (r StyleRecord) HasFlag(c byte) bool {
	for i := 0; i < len(r.Flags); i++ {
		if r.Flags[i] == c {
			return true
		}
	}
	return false
}

// GetStyle resolves a (tag, hash) pair, returning ok=false if not present;
// the caller decides whether a miss is a warning.
func (s *Store) GetStyle(tag, hash string) (rec StyleRecord, ok bool, err error) {
	row := s.query(`SELECT otag, ctag, flags FROM styles WHERE tag = ? AND hash = ?`, tag, hash)
	if scanErr := row.Scan(&rec.Open, &rec.Close, &rec.Flags); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return StyleRecord{}, false, nil
		}
		return StyleRecord{}, false, errs.Fatal(errs.ErrStoreError, "get style", tag+":"+hash, scanErr)
	}
	return rec, true, nil
}
