package graph_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/kv"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
)

// storeTest runs f against a fresh store of every engine kind.
func storeTest(t *testing.T, f func(t *testing.T, store *graph.KV)) {
	t.Helper()

	engines := map[string]func(t *testing.T) kv.Engine{
		"memory": func(t *testing.T) kv.Engine { return kv.NewMemory() },
		"leveldb": func(t *testing.T) kv.Engine {
			engine, err := kv.OpenLevelDB(t.TempDir())
			if err != nil {
				t.Fatalf("OpenLevelDB() returned error %v", err)
			}
			return engine
		},
		"badger": func(t *testing.T) kv.Engine {
			engine, err := kv.OpenBadger("")
			if err != nil {
				t.Fatalf("OpenBadger() returned error %v", err)
			}
			return engine
		},
	}

	for name, open := range engines {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := graph.New(open(t))
			defer store.Close()

			f(t, store)
		})
	}
}

// update runs f within a writable transaction and commits it.
func update(t *testing.T, store graph.Store, f func(tx graph.Tx)) {
	t.Helper()

	tx, err := store.Begin(context.Background(), true)
	if err != nil {
		t.Fatalf("Begin() returned error %v", err)
	}
	f(tx)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() returned error %v", err)
	}
}

var (
	alice = rdf.ContextResource{URI: "http://example.com/alice"}
	bob   = rdf.ContextResource{URI: "http://example.com/bob"}
	bobG  = rdf.ContextResource{URI: "http://example.com/bob", Graph: "http://example.com/g", HasGraph: true}
)

func TestKV_Nodes(t *testing.T) {
	t.Parallel()

	storeTest(t, func(t *testing.T, store *graph.KV) {
		var a, b, bg graph.NodeID
		update(t, store, func(tx graph.Tx) {
			var err error
			for _, c := range []struct {
				dest     *graph.NodeID
				identity rdf.ContextResource
			}{{&a, alice}, {&b, bob}, {&bg, bobG}} {
				*c.dest, err = tx.CreateNode(c.identity)
				if err != nil {
					t.Fatalf("CreateNode() returned error %v", err)
				}
			}

			if _, err := tx.AddLabel(a, "Person"); err != nil {
				t.Fatalf("AddLabel() returned error %v", err)
			}
			if err := tx.SetProperty(a, "name", graph.Single(graph.String("Alice"))); err != nil {
				t.Fatalf("SetProperty() returned error %v", err)
			}
			if err := tx.SetProperty(a, graph.URIProperty, graph.Single(graph.String("other"))); !errors.Is(err, graph.ErrIdentityProperty) {
				t.Errorf("SetProperty(uri) got = %v, want = %v", err, graph.ErrIdentityProperty)
			}
		})

		tx, err := store.Begin(context.Background(), false)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		defer tx.Rollback()

		// lookup distinguishes graphs
		for _, c := range []struct {
			identity rdf.ContextResource
			want     graph.NodeID
		}{{alice, a}, {bob, b}, {bobG, bg}} {
			got, err := tx.Lookup(c.identity)
			if err != nil || len(got) != 1 || got[0] != c.want {
				t.Errorf("Lookup(%s) got = (%v, %v), want = ([%v], nil)", c.identity, got, err, c.want)
			}
		}

		node, ok, err := tx.Node(a)
		if err != nil || !ok {
			t.Fatalf("Node() got = (%v, %v)", ok, err)
		}
		if !node.HasLabel("Person") || !node.HasLabel(graph.IdentityLabel) {
			t.Errorf("Node() got labels = %v", node.Labels)
		}
		if node.Identity() != alice {
			t.Errorf("Node().Identity() got = %v, want = %v", node.Identity(), alice)
		}
		if node.IsPlaceholder() {
			t.Error("Node().IsPlaceholder() got = true, want = false")
		}

		// query by uri ignores the graph
		var count int
		for node, err := range tx.Nodes(graph.NodeQuery{URI: bob.URI}) {
			if err != nil {
				t.Fatalf("Nodes() returned error %v", err)
			}
			if !node.IsPlaceholder() {
				t.Errorf("Nodes() returned non-placeholder %v", node)
			}
			count++
		}
		if count != 2 {
			t.Errorf("Nodes(uri) got %d nodes, want = 2", count)
		}

		value := graph.String("Alice")
		count = 0
		for _, err := range tx.Nodes(graph.NodeQuery{Property: "name", Value: &value}) {
			if err != nil {
				t.Fatalf("Nodes() returned error %v", err)
			}
			count++
		}
		if count != 1 {
			t.Errorf("Nodes(name=Alice) got %d nodes, want = 1", count)
		}

		if _, err := tx.CreateNode(alice); !errors.Is(err, graph.ErrReadOnly) {
			t.Errorf("CreateNode() on read-only transaction got = %v, want = %v", err, graph.ErrReadOnly)
		}
	})
}

func TestKV_Edges(t *testing.T) {
	t.Parallel()

	storeTest(t, func(t *testing.T, store *graph.KV) {
		var a, b graph.NodeID
		var knows graph.EdgeID
		update(t, store, func(tx graph.Tx) {
			var err error
			if a, err = tx.CreateNode(alice); err != nil {
				t.Fatalf("CreateNode() returned error %v", err)
			}
			if b, err = tx.CreateNode(bob); err != nil {
				t.Fatalf("CreateNode() returned error %v", err)
			}
			if knows, err = tx.CreateEdge(a, b, "knows"); err != nil {
				t.Fatalf("CreateEdge() returned error %v", err)
			}
			if _, err = tx.CreateEdge(a, b, "likes"); err != nil {
				t.Fatalf("CreateEdge() returned error %v", err)
			}
			if _, err = tx.CreateEdge(b, a, "knows"); err != nil {
				t.Fatalf("CreateEdge() returned error %v", err)
			}
		})

		update(t, store, func(tx graph.Tx) {
			for _, c := range []struct {
				node graph.NodeID
				typ  string
				dir  graph.Direction
				want int
			}{
				{a, "", graph.Outgoing, 2},
				{a, "knows", graph.Outgoing, 1},
				{a, "know", graph.Outgoing, 0},
				{a, "", graph.Incoming, 1},
				{b, "likes", graph.Incoming, 1},
				{b, "likes", graph.Outgoing, 0},
			} {
				got, err := tx.Degree(c.node, c.typ, c.dir)
				if err != nil || got != c.want {
					t.Errorf("Degree(%v, %q, %v) got = (%d, %v), want = (%d, nil)", c.node, c.typ, c.dir, got, err, c.want)
				}
			}

			for edge, err := range tx.Edges(a, "knows", graph.Outgoing) {
				if err != nil {
					t.Fatalf("Edges() returned error %v", err)
				}
				want := graph.Edge{ID: knows, Type: "knows", From: a, To: b}
				if edge != want {
					t.Errorf("Edges() got = %v, want = %v", edge, want)
				}
			}

			// deleting a node removes all its edges
			if err := tx.DeleteNode(b); err != nil {
				t.Fatalf("DeleteNode() returned error %v", err)
			}
			if got, err := tx.Degree(a, "", graph.Outgoing); err != nil || got != 0 {
				t.Errorf("Degree() after DeleteNode() got = (%d, %v), want = (0, nil)", got, err)
			}
			if _, ok, _ := tx.Edge(knows); ok {
				t.Error("Edge() after DeleteNode() still exists")
			}
		})

		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats() returned error %v", err)
		}
		if want := (graph.Stats{Nodes: 1, Edges: 0}); stats != want {
			t.Errorf("Stats() got = %v, want = %v", stats, want)
		}
	})
}

func TestKV_Degree(t *testing.T) {
	t.Parallel()

	const N = 50

	storeTest(t, func(t *testing.T, store *graph.KV) {
		var hub graph.NodeID
		var targets []graph.NodeID
		var edges []graph.EdgeID

		update(t, store, func(tx graph.Tx) {
			var err error
			if hub, err = tx.CreateNode(alice); err != nil {
				t.Fatalf("CreateNode() returned error %v", err)
			}
			for i := range N {
				target, err := tx.CreateNode(rdf.ContextResource{URI: fmt.Sprintf("http://example.com/%d", i)})
				if err != nil {
					t.Fatalf("CreateNode() returned error %v", err)
				}
				edge, err := tx.CreateEdge(hub, target, "knows")
				if err != nil {
					t.Fatalf("CreateEdge() returned error %v", err)
				}
				targets = append(targets, target)
				edges = append(edges, edge)
			}
			if _, err := tx.CreateEdge(hub, hub, "self"); err != nil {
				t.Fatalf("CreateEdge() returned error %v", err)
			}
		})

		degree := func(tx graph.Tx, node graph.NodeID, typ string, dir graph.Direction, want int) {
			t.Helper()
			if got, err := tx.Degree(node, typ, dir); err != nil || got != want {
				t.Errorf("Degree(%v, %q, %v) got = (%d, %v), want = (%d, nil)", node, typ, dir, got, err, want)
			}
		}

		update(t, store, func(tx graph.Tx) {
			degree(tx, hub, "knows", graph.Outgoing, N)
			degree(tx, hub, "", graph.Outgoing, N+1)
			degree(tx, hub, "", graph.Incoming, 1)

			for _, edge := range edges[:10] {
				if err := tx.DeleteEdge(edge); err != nil {
					t.Fatalf("DeleteEdge() returned error %v", err)
				}
			}

			degree(tx, hub, "knows", graph.Outgoing, N-10)
			degree(tx, targets[0], "knows", graph.Incoming, 0)
			degree(tx, targets[10], "knows", graph.Incoming, 1)
		})

		update(t, store, func(tx graph.Tx) {
			if err := tx.DeleteNode(hub); err != nil {
				t.Fatalf("DeleteNode() returned error %v", err)
			}
			degree(tx, targets[N-1], "", graph.Incoming, 0)
			degree(tx, hub, "", graph.Outgoing, 0)
		})

		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats() returned error %v", err)
		}
		if want := (graph.Stats{Nodes: N, Edges: 0}); stats != want {
			t.Errorf("Stats() got = %v, want = %v", stats, want)
		}
	})
}

func TestKV_IdentityConstraint(t *testing.T) {
	t.Parallel()

	storeTest(t, func(t *testing.T, store *graph.KV) {
		ctx := context.Background()

		update(t, store, func(tx graph.Tx) {
			for i := 0; i < 2; i++ {
				if _, err := tx.CreateNode(alice); err != nil {
					t.Fatalf("CreateNode() returned error %v", err)
				}
			}
		})

		if err := store.CreateIdentityConstraint(ctx); !errors.Is(err, graph.ErrConstraintViolation) {
			t.Errorf("CreateIdentityConstraint() got = %v, want = %v", err, graph.ErrConstraintViolation)
		}

		// remove the duplicate
		update(t, store, func(tx graph.Tx) {
			ids, err := tx.Lookup(alice)
			if err != nil || len(ids) != 2 {
				t.Fatalf("Lookup() got = (%v, %v)", ids, err)
			}
			if err := tx.DeleteNode(ids[1]); err != nil {
				t.Fatalf("DeleteNode() returned error %v", err)
			}
		})

		if err := store.CreateIdentityConstraint(ctx); err != nil {
			t.Fatalf("CreateIdentityConstraint() returned error %v", err)
		}
		if ok, err := store.HasIdentityConstraint(ctx); err != nil || !ok {
			t.Errorf("HasIdentityConstraint() got = (%v, %v), want = (true, nil)", ok, err)
		}

		tx, err := store.Begin(ctx, true)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		defer tx.Rollback()

		if _, err := tx.CreateNode(alice); !errors.Is(err, graph.ErrConstraintViolation) {
			t.Errorf("CreateNode() got = %v, want = %v", err, graph.ErrConstraintViolation)
		}
		if _, err := tx.CreateNode(bob); err != nil {
			t.Errorf("CreateNode() returned error %v", err)
		}
	})
}

func TestKV_Meta(t *testing.T) {
	t.Parallel()

	storeTest(t, func(t *testing.T, store *graph.KV) {
		update(t, store, func(tx graph.Tx) {
			if err := tx.SetMeta("hello", []byte("world")); err != nil {
				t.Fatalf("SetMeta() returned error %v", err)
			}
		})

		tx, err := store.Begin(context.Background(), false)
		if err != nil {
			t.Fatalf("Begin() returned error %v", err)
		}
		defer tx.Rollback()

		got, ok, err := tx.Meta("hello")
		if err != nil || !ok || string(got) != "world" {
			t.Errorf("Meta() got = (%q, %v, %v), want = (\"world\", true, nil)", got, ok, err)
		}
	})
}

func TestKV_Begin_Canceled(t *testing.T) {
	t.Parallel()

	store := graph.New(kv.NewMemory())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Begin(ctx, false); !errors.Is(err, context.Canceled) {
		t.Errorf("Begin() got = %v, want = %v", err, context.Canceled)
	}
}
