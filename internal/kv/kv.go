// Package kv implements transactional key-value engines.
//
// An engine stores byte keys and values in a small number of tables.
// Every table occupies its own key space by prefixing keys with the table byte.
package kv

import (
	"bytes"
	"errors"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/exp/slices"
)

// cspell:words leveldb

// Table identifies a key space within an engine.
type Table byte

// Engine is a transactional key-value store.
type Engine interface {
	// Begin starts a new transaction.
	//
	// At most one writable transaction is open at any time.
	// Beginning a second writable transaction blocks until the first one is committed or rolled back.
	Begin(writable bool) (Txn, error)

	// Close closes the engine.
	// Any open transaction must be finished before Close is called.
	Close() error
}

// Txn is a transaction against an engine.
type Txn interface {
	// Get retrieves the value for the given key.
	// The second return value indicates if the key was found.
	Get(table Table, key []byte) ([]byte, bool, error)

	// Set sets the given key to the given value.
	Set(table Table, key, value []byte) error

	// Delete deletes the given key.
	// Deleting a non-existent key is not an error.
	Delete(table Table, key []byte) error

	// Iterate calls f for every key in table that starts with prefix, in key order.
	// The table byte is not part of the key passed to f.
	// Pairs are read on demand, so that iteration can be stopped early.
	//
	// f may call any other method of this transaction, including writes.
	// Writes made by f to keys after the current one may or may not be observed by the ongoing iteration.
	// When f returns a non-nil error, iteration stops and the error is returned.
	Iterate(table Table, prefix []byte, f func(key, value []byte) error) error

	// Commit commits this transaction.
	Commit() error

	// Rollback discards all changes made within this transaction.
	Rollback() error
}

var (
	ErrReadOnly = errors.New("kv: transaction is read-only")
	ErrDone     = errors.New("kv: transaction already finished")
	ErrClosed   = errors.New("kv: engine is closed")
)

// Count counts the keys in table starting with prefix.
func Count(txn Txn, table Table, prefix []byte) (count int, err error) {
	err = txn.Iterate(table, prefix, func(key, value []byte) error {
		count++
		return nil
	})
	return
}

// tableKey returns the key used to store key in table.
func tableKey(table Table, key []byte) []byte {
	result := make([]byte, len(key)+1)
	result[0] = byte(table)
	copy(result[1:], key)
	return result
}

// cursor walks over key-value pairs in key order.
// Keys include the table byte.
type cursor interface {
	next() bool
	key() []byte
	value() []byte
	err() error
	close()
}

// levelCursor adapts a leveldb iterator into a cursor
type levelCursor struct {
	it iterator.Iterator
}

func (lc levelCursor) next() bool    { return lc.it.Next() }
func (lc levelCursor) key() []byte   { return lc.it.Key() }
func (lc levelCursor) value() []byte { return lc.it.Value() }
func (lc levelCursor) err() error    { return lc.it.Error() }
func (lc levelCursor) close()        { lc.it.Release() }

// markers of values stored in an overlay
const (
	markSet byte = iota
	markDeleted
)

// overlay holds the uncommitted changes of a writable transaction in key order.
//
// Keys include the table byte.
// Values are prefixed with a marker, so that deletions shadow committed values.
type overlay struct {
	db *memdb.DB
}

func newOverlay() overlay {
	return overlay{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (o overlay) set(key, value []byte) error {
	return o.db.Put(key, append([]byte{markSet}, value...))
}

func (o overlay) delete(key []byte) error {
	return o.db.Put(key, []byte{markDeleted})
}

// get returns the pending value for key.
// ok indicates if there is any pending change for key.
func (o overlay) get(key []byte) (value []byte, deleted, ok bool) {
	data, err := o.db.Get(key)
	if err != nil {
		return nil, false, false
	}
	if data[0] == markDeleted {
		return nil, true, true
	}
	return slices.Clone(data[1:]), false, true
}

// cursor returns a cursor over the pending changes of keys starting with prefix
func (o overlay) cursor(prefix []byte) cursor {
	return levelCursor{it: o.db.NewIterator(util.BytesPrefix(prefix))}
}

// each calls f for every pending change in key order
func (o overlay) each(f func(key, value []byte, deleted bool) error) error {
	it := o.db.NewIterator(nil)
	defer it.Release()

	for it.Next() {
		data := it.Value()
		if err := f(it.Key(), data[1:], data[0] == markDeleted); err != nil {
			return err
		}
	}
	return it.Error()
}

// merge calls f for every pair of base, with the changes in pending applied on top.
// pending may be nil.
// Both cursors are closed once merge returns.
func merge(base, pending cursor, f func(key, value []byte) error) error {
	defer base.close()
	if pending != nil {
		defer pending.close()
	}

	hasBase := base.next()
	hasPending := pending != nil && pending.next()

	for hasBase || hasPending {
		var order int
		switch {
		case !hasPending:
			order = -1
		case !hasBase:
			order = 1
		default:
			order = bytes.Compare(base.key(), pending.key())
		}

		var key, value []byte
		var deleted bool
		if order < 0 {
			key, value = slices.Clone(base.key()), slices.Clone(base.value())
		} else {
			change := pending.value()
			key, deleted = slices.Clone(pending.key()), change[0] == markDeleted
			if !deleted {
				value = slices.Clone(change[1:])
			}
		}

		if order <= 0 {
			hasBase = base.next()
		}
		if order >= 0 {
			hasPending = pending.next()
		}
		if deleted {
			continue
		}

		if err := f(key[1:], value); err != nil {
			return err
		}
	}

	if err := base.err(); err != nil {
		return err
	}
	if pending != nil {
		return pending.err()
	}
	return nil
}
