// Package store persists output workbooks by name. The engine only ever talks
// to a Store, so the same batch can write to a directory or to a SQLite file.
package store

import "errors"

// ErrNotFound is returned by Load when no document has the given name.
var ErrNotFound = errors.New("document not found")

// Store lists, loads and saves serialized documents.
type Store interface {
	// List returns the names starting with prefix, sorted.
	List(prefix string) ([]string, error)
	Exists(name string) (bool, error)
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
}

// Open returns the back-end named by backend: "dir" (default) stores files
// under dir, "sqlite" stores them in the database at sqlitePath.
func Open(backend, dir, sqlitePath string) (Store, error) {
	switch backend {
	case "", "dir":
		return NewDirStore(dir)
	case "sqlite":
		return NewSQLiteStore(sqlitePath)
	default:
		return nil, errors.New("unknown store backend: " + backend)
	}
}
