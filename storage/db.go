package storage

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic key-value store. The settlement state is encoded on
// top of it so the ledger can run against an in-memory store in tests and
// LevelDB in production.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close()
}

// MemDB is an in-memory Database for tests and development.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB constructs an empty in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

// Put inserts or updates a key-value pair.
func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Get retrieves the value for a key, or ErrNotFound.
func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {}

// LevelDB is a persistent key-value store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Get retrieves the value for a key, mapping leveldb's miss to ErrNotFound.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Close closes the underlying database.
func (ldb *LevelDB) Close() {
	_ = ldb.db.Close()
}
