package kv

// cspell:words leveldb syndtr goleveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is an engine that persistently stores data on disk using leveldb.
//
// Writable transactions map onto leveldb transactions, read-only transactions onto snapshots.
type LevelDB struct {
	DB *leveldb.DB
}

// OpenLevelDB opens or creates a leveldb database at the given path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}
	return &LevelDB{DB: db}, nil
}

func (ldb *LevelDB) Begin(writable bool) (Txn, error) {
	if ldb.DB == nil {
		return nil, ErrClosed
	}

	if writable {
		tr, err := ldb.DB.OpenTransaction()
		if err != nil {
			return nil, fmt.Errorf("failed to open transaction: %w", err)
		}
		return &levelTxn{reader: tr, tr: tr}, nil
	}

	snap, err := ldb.DB.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &levelTxn{reader: snap, snap: snap}, nil
}

// Compact compacts the underlying database.
func (ldb *LevelDB) Compact() error {
	if err := ldb.DB.CompactRange(util.Range{}); err != nil {
		return fmt.Errorf("failed to compact database: %w", err)
	}
	return nil
}

func (ldb *LevelDB) Close() error {
	var err error

	if ldb.DB != nil {
		err = ldb.DB.Close()
	}
	ldb.DB = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// levelReader is implemented by both leveldb transactions and snapshots
type levelReader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type levelTxn struct {
	reader levelReader

	// exactly one of tr and snap is set
	tr   *leveldb.Transaction
	snap *leveldb.Snapshot

	done bool
}

func (txn *levelTxn) Get(table Table, key []byte) ([]byte, bool, error) {
	if txn.done {
		return nil, false, ErrDone
	}

	value, err := txn.reader.Get(tableKey(table, key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key from database: %w", err)
	}
	return value, true, nil
}

func (txn *levelTxn) Set(table Table, key, value []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	if err := txn.tr.Put(tableKey(table, key), value, nil); err != nil {
		return fmt.Errorf("failed to set value for key: %w", err)
	}
	return nil
}

func (txn *levelTxn) Delete(table Table, key []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	if err := txn.tr.Delete(tableKey(table, key), nil); err != nil {
		return fmt.Errorf("failed to delete key from disk: %w", err)
	}
	return nil
}

func (txn *levelTxn) checkWritable() error {
	if txn.done {
		return ErrDone
	}
	if txn.tr == nil {
		return ErrReadOnly
	}
	return nil
}

func (txn *levelTxn) Iterate(table Table, prefix []byte, f func(key, value []byte) error) error {
	if txn.done {
		return ErrDone
	}

	var base cursor = levelCursor{it: txn.reader.NewIterator(util.BytesPrefix(tableKey(table, prefix)), nil)}
	if txn.tr != nil {
		// writes to a transaction may flush its buffer, so walk over a copy
		var err error
		if base, err = buffer(base); err != nil {
			return fmt.Errorf("failed to iterate database: %w", err)
		}
	}

	return merge(base, nil, f)
}

// buffer copies the remaining pairs of c into memory and closes it.
func buffer(c cursor) (cursor, error) {
	defer c.close()

	copied := memdb.New(comparer.DefaultComparer, 0)
	for c.next() {
		if err := copied.Put(c.key(), c.value()); err != nil {
			return nil, err
		}
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return levelCursor{it: copied.NewIterator(nil)}, nil
}

func (txn *levelTxn) Commit() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true

	if txn.snap != nil {
		txn.snap.Release()
		return nil
	}
	if err := txn.tr.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (txn *levelTxn) Rollback() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true

	if txn.snap != nil {
		txn.snap.Release()
		return nil
	}
	txn.tr.Discard()
	return nil
}
