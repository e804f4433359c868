package kv

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/exp/slices"
)

// Memory is an engine that keeps all data in main memory.
//
// Keys are kept in a skip list, so that prefix iteration seeks directly to the first matching key.
// The underlying buffer is append-only: overwritten and deleted values are only reclaimed by Close.
type Memory struct {
	writer sync.Mutex // held by the open writable transaction

	m      sync.RWMutex // protects closed
	data   *memdb.DB
	closed bool
}

// NewMemory creates a new empty memory engine.
func NewMemory() *Memory {
	return &Memory{
		data: memdb.New(comparer.DefaultComparer, 0),
	}
}

func (mem *Memory) isClosed() bool {
	mem.m.RLock()
	defer mem.m.RUnlock()
	return mem.closed
}

func (mem *Memory) Begin(writable bool) (Txn, error) {
	if mem.isClosed() {
		return nil, ErrClosed
	}

	txn := &memoryTxn{mem: mem, writable: writable}
	if writable {
		mem.writer.Lock()
		txn.pending = newOverlay()
	}
	return txn, nil
}

// Close closes this engine, deleting all values.
func (mem *Memory) Close() error {
	mem.m.Lock()
	defer mem.m.Unlock()

	mem.closed = true
	mem.data.Reset()
	return nil
}

type memoryTxn struct {
	mem      *Memory
	writable bool
	done     bool
	pending  overlay // only set for writable transactions
}

func (txn *memoryTxn) Get(table Table, key []byte) ([]byte, bool, error) {
	if txn.done {
		return nil, false, ErrDone
	}

	tkey := tableKey(table, key)
	if txn.writable {
		if value, deleted, ok := txn.pending.get(tkey); ok {
			return value, !deleted, nil
		}
	}

	value, err := txn.mem.data.Get(tkey)
	if errors.Is(err, memdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return slices.Clone(value), true, nil
}

func (txn *memoryTxn) Set(table Table, key, value []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	return txn.pending.set(tableKey(table, key), value)
}

func (txn *memoryTxn) Delete(table Table, key []byte) error {
	if err := txn.checkWritable(); err != nil {
		return err
	}
	return txn.pending.delete(tableKey(table, key))
}

func (txn *memoryTxn) checkWritable() error {
	if txn.done {
		return ErrDone
	}
	if !txn.writable {
		return ErrReadOnly
	}
	return nil
}

func (txn *memoryTxn) Iterate(table Table, prefix []byte, f func(key, value []byte) error) error {
	if txn.done {
		return ErrDone
	}

	scan := tableKey(table, prefix)
	base := levelCursor{it: txn.mem.data.NewIterator(util.BytesPrefix(scan))}

	var pending cursor
	if txn.writable {
		pending = txn.pending.cursor(scan)
	}
	return merge(base, pending, f)
}

func (txn *memoryTxn) Commit() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true

	if !txn.writable {
		return nil
	}
	defer txn.mem.writer.Unlock()

	if txn.mem.isClosed() {
		return ErrClosed
	}

	data := txn.mem.data
	return txn.pending.each(func(key, value []byte, deleted bool) error {
		if !deleted {
			return data.Put(key, value)
		}
		if err := data.Delete(key); err != nil && !errors.Is(err, memdb.ErrNotFound) {
			return err
		}
		return nil
	})
}

func (txn *memoryTxn) Rollback() error {
	if txn.done {
		return ErrDone
	}
	txn.done = true

	if txn.writable {
		txn.mem.writer.Unlock()
	}
	return nil
}
