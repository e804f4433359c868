package kv_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/kv"
)

const (
	tableA kv.Table = iota
	tableB
)

// engineTest runs the shared test suite against the given engine.
// The engine is closed when the test completes.
func engineTest(t *testing.T, engine kv.Engine, N int) {
	t.Helper()
	defer engine.Close()

	key := func(i int) []byte { return []byte(fmt.Sprintf("key/%06d", i)) }
	value := func(i int) []byte { return []byte(fmt.Sprintf("value %d", i)) }

	// write N values into table A, and one into table B
	{
		txn, err := engine.Begin(true)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		for i := 0; i < N; i++ {
			if err := txn.Set(tableA, key(i), value(i)); err != nil {
				t.Fatalf("Set() returned error %v", err)
			}
		}
		if err := txn.Set(tableB, key(0), []byte("other")); err != nil {
			t.Fatalf("Set() returned error %v", err)
		}

		// pending writes are visible to the transaction itself
		got, ok, err := txn.Get(tableA, key(0))
		if err != nil || !ok || string(got) != string(value(0)) {
			t.Errorf("Get() in transaction got = (%q, %v, %v), want = (%q, true, nil)", got, ok, err, value(0))
		}

		if err := txn.Commit(); err != nil {
			t.Fatalf("Commit() returned error %v", err)
		}
	}

	// read them back
	{
		txn, err := engine.Begin(false)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		for i := 0; i < N; i++ {
			got, ok, err := txn.Get(tableA, key(i))
			if err != nil || !ok || string(got) != string(value(i)) {
				t.Errorf("Get(%d) got = (%q, %v, %v), want = (%q, true, nil)", i, got, ok, err, value(i))
			}
		}

		count, err := kv.Count(txn, tableA, []byte("key/"))
		if err != nil || count != N {
			t.Errorf("Count() got = (%d, %v), want = (%d, nil)", count, err, N)
		}

		count, err = kv.Count(txn, tableB, nil)
		if err != nil || count != 1 {
			t.Errorf("Count() got = (%d, %v), want = (1, nil)", count, err)
		}

		// iteration is ordered and strips the table
		var prev string
		if err := txn.Iterate(tableA, nil, func(k, v []byte) error {
			if string(k) <= prev {
				return fmt.Errorf("keys out of order: %q after %q", k, prev)
			}
			prev = string(k)
			return nil
		}); err != nil {
			t.Errorf("Iterate() returned error %v", err)
		}

		if err := txn.Set(tableA, key(0), nil); !errors.Is(err, kv.ErrReadOnly) {
			t.Errorf("Set() on read-only transaction got = %v, want = %v", err, kv.ErrReadOnly)
		}

		if err := txn.Commit(); err != nil {
			t.Fatalf("Commit() returned error %v", err)
		}
	}

	// delete every other value, but roll back
	deleteHalf := func(commit bool) {
		txn, err := engine.Begin(true)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		if err := txn.Iterate(tableA, nil, func(k, v []byte) error {
			var i int
			if _, err := fmt.Sscanf(string(k), "key/%06d", &i); err != nil {
				return err
			}
			if i%2 == 0 {
				return nil
			}
			return txn.Delete(tableA, k)
		}); err != nil {
			t.Fatalf("Iterate() returned error %v", err)
		}

		if commit {
			err = txn.Commit()
		} else {
			err = txn.Rollback()
		}
		if err != nil {
			t.Fatalf("finishing transaction returned error %v", err)
		}

		if err := txn.Commit(); !errors.Is(err, kv.ErrDone) {
			t.Errorf("Commit() after finishing got = %v, want = %v", err, kv.ErrDone)
		}
	}

	countA := func() int {
		txn, err := engine.Begin(false)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		defer txn.Rollback()

		count, err := kv.Count(txn, tableA, nil)
		if err != nil {
			t.Fatalf("Count() returned error %v", err)
		}
		return count
	}

	deleteHalf(false)
	if got := countA(); got != N {
		t.Errorf("after rollback got %d keys, want = %d", got, N)
	}

	deleteHalf(true)
	if got, want := countA(), (N+1)/2; got != want {
		t.Errorf("after commit got %d keys, want = %d", got, want)
	}
}

// mergeTest checks that a writable transaction iterates over committed values with its own changes applied.
// The engine is closed when the test completes.
func mergeTest(t *testing.T, engine kv.Engine) {
	t.Helper()
	defer engine.Close()

	set := func(txn kv.Txn, key, value string) {
		t.Helper()
		if err := txn.Set(tableA, []byte(key), []byte(value)); err != nil {
			t.Fatalf("Set() returned error %v", err)
		}
	}

	txn, err := engine.Begin(true)
	if err != nil {
		t.Fatalf("Begin() returned error %v", err)
	}
	set(txn, "p/a", "1")
	set(txn, "p/c", "3")
	set(txn, "p/e", "5")
	set(txn, "q/a", "other")
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit() returned error %v", err)
	}

	txn, err = engine.Begin(true)
	if err != nil {
		t.Fatalf("Begin() returned error %v", err)
	}
	defer txn.Rollback()

	set(txn, "p/b", "2")
	set(txn, "p/c", "three")
	if err := txn.Delete(tableA, []byte("p/e")); err != nil {
		t.Fatalf("Delete() returned error %v", err)
	}

	var got []string
	if err := txn.Iterate(tableA, []byte("p/"), func(key, value []byte) error {
		got = append(got, string(key)+"="+string(value))
		return nil
	}); err != nil {
		t.Fatalf("Iterate() returned error %v", err)
	}

	want := []string{"p/a=1", "p/b=2", "p/c=three"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Iterate() got = %v, want = %v", got, want)
	}

	// returning an error stops the iteration right away
	errStop := errors.New("stop")
	calls := 0
	if err := txn.Iterate(tableA, nil, func(key, value []byte) error {
		calls++
		return errStop
	}); !errors.Is(err, errStop) || calls != 1 {
		t.Errorf("Iterate() got = (%v, %d calls), want = (%v, 1 call)", err, calls, errStop)
	}

	if got, ok, err := txn.Get(tableA, []byte("p/e")); err != nil || ok {
		t.Errorf("Get() of deleted key got = (%q, %v, %v), want = (nil, false, nil)", got, ok, err)
	}
}

func TestMemory(t *testing.T) {
	t.Parallel()

	engineTest(t, kv.NewMemory(), 1000)
	mergeTest(t, kv.NewMemory())
}

func TestLevelDB(t *testing.T) {
	t.Parallel()

	for _, test := range []func(t *testing.T, engine kv.Engine){
		func(t *testing.T, engine kv.Engine) { engineTest(t, engine, 1000) },
		mergeTest,
	} {
		engine, err := kv.OpenLevelDB(t.TempDir())
		if err != nil {
			t.Fatalf("OpenLevelDB() returned error %v", err)
		}
		test(t, engine)
	}
}

func TestBadger(t *testing.T) {
	t.Parallel()

	for _, test := range []func(t *testing.T, engine kv.Engine){
		func(t *testing.T, engine kv.Engine) { engineTest(t, engine, 1000) },
		mergeTest,
	} {
		engine, err := kv.OpenBadger("")
		if err != nil {
			t.Fatalf("OpenBadger() returned error %v", err)
		}
		test(t, engine)
	}
}

func TestMemory_Closed(t *testing.T) {
	t.Parallel()

	engine := kv.NewMemory()
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() returned error %v", err)
	}
	if _, err := engine.Begin(false); !errors.Is(err, kv.ErrClosed) {
		t.Errorf("Begin() after Close() got = %v, want = %v", err, kv.ErrClosed)
	}
}
