package kv

import (
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/exp/slices"
)

// Badger is an engine backed by a badger database.
type Badger struct {
	db     *badger.DB
	writer sync.Mutex // serializes writable transactions, so that they never conflict
}

// OpenBadger opens or creates a badger database at the given path.
// An empty path creates a database that is only held in memory.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Badger{db: db}, nil
}

func (bdb *Badger) Begin(writable bool) (Txn, error) {
	if bdb.db == nil {
		return nil, ErrClosed
	}

	txn := &badgerTxn{engine: bdb, writable: writable}
	if writable {
		bdb.writer.Lock()
		txn.pending = newOverlay()
	}

	// reads always go through a read-only transaction.
	// writes are kept in an overlay and only handed to badger on commit.
	txn.txn = bdb.db.NewTransaction(false)
	return txn, nil
}

func (bdb *Badger) Close() error {
	if bdb.db == nil {
		return nil
	}
	err := bdb.db.Close()
	bdb.db = nil
	if err != nil {
		return fmt.Errorf("failed to close badger db: %w", err)
	}
	return nil
}

type badgerTxn struct {
	engine   *Badger
	txn      *badger.Txn
	writable bool
	done     bool
	pending  overlay // only set for writable transactions
}

func (txn *badgerTxn) Get(table Table, key []byte) ([]byte, bool, error) {
	if txn.done {
		return nil, false, ErrDone
	}

	tkey := tableKey(table, key)
	if txn.writable {
		if value, deleted, ok := txn.pending.get(tkey); ok {
			return value, !deleted, nil
		}
	}

	item, err := txn.txn.Get(tkey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key: %w", err)
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read value: %w", err)
	}
	return value, true, nil
}

func (txn *badgerTxn) Set(table Table, key, value []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	return txn.pending.set(tableKey(table, key), value)
}

func (txn *badgerTxn) Delete(table Table, key []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	return txn.pending.delete(tableKey(table, key))
}

func (txn *badgerTxn) checkWritable() error {
	if txn.done {
		return ErrDone
	}
	if !txn.writable {
		return ErrReadOnly
	}
	return nil
}

func (txn *badgerTxn) Iterate(table Table, prefix []byte, f func(key, value []byte) error) error {
	if txn.done {
		return ErrDone
	}

	scan := tableKey(table, prefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scan
	base := &badgerCursor{it: txn.txn.NewIterator(opts), prefix: scan}

	var pending cursor
	if txn.writable {
		pending = txn.pending.cursor(scan)
	}
	return merge(base, pending, f)
}

// badgerCursor adapts a badger iterator into a cursor
type badgerCursor struct {
	it      *badger.Iterator
	prefix  []byte
	started bool

	val []byte
	e   error
}

func (bc *badgerCursor) next() bool {
	if bc.started {
		bc.it.Next()
	} else {
		bc.it.Seek(bc.prefix)
		bc.started = true
	}
	if bc.e != nil || !bc.it.ValidForPrefix(bc.prefix) {
		return false
	}

	bc.val, bc.e = bc.it.Item().ValueCopy(nil)
	if bc.e != nil {
		bc.e = fmt.Errorf("failed to read value: %w", bc.e)
		return false
	}
	return true
}

func (bc *badgerCursor) key() []byte   { return bc.it.Item().Key() }
func (bc *badgerCursor) value() []byte { return bc.val }
func (bc *badgerCursor) err() error    { return bc.e }
func (bc *badgerCursor) close()        { bc.it.Close() }

func (txn *badgerTxn) Commit() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true
	txn.txn.Discard()

	if !txn.writable {
		return nil
	}
	defer txn.engine.writer.Unlock()

	if err := txn.engine.apply(txn.pending); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// apply writes the given changes into the database.
//
// Changes that do not fit into a single badger transaction are split over several.
// Writable transactions are serialized by the writer lock, so no other writer observes the split.
func (bdb *Badger) apply(changes overlay) error {
	txn := bdb.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	write := func(key, value []byte, deleted bool) error {
		if deleted {
			return txn.Delete(key)
		}
		return txn.Set(key, value)
	}

	if err := changes.each(func(key, value []byte, deleted bool) error {
		key, value = slices.Clone(key), slices.Clone(value)

		err := write(key, value, deleted)
		if !errors.Is(err, badger.ErrTxnTooBig) {
			return err
		}

		if err := txn.Commit(); err != nil {
			return err
		}
		txn = bdb.db.NewTransaction(true)
		return write(key, value, deleted)
	}); err != nil {
		return err
	}
	return txn.Commit()
}

func (txn *badgerTxn) Rollback() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true
	txn.txn.Discard()

	if txn.writable {
		txn.engine.writer.Unlock()
	}
	return nil
}
