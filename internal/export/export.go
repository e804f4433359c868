// Package export turns the content of a property graph back into rdf statements.
package export

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/FAU-CDI/pgrdf/internal/codec"
	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/vocab"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrCrossGraph is returned for an edge between nodes of different named graphs.
var ErrCrossGraph = errors.New("edge connects nodes in different graphs")

// Exporter exports statements from a store.
type Exporter struct {
	Store graph.Store
	Vocab *vocab.Translator
	Codec *codec.Codec
}

// New creates a new exporter for the given store.
// The literal encoding used by the last load is read from the store, and so are the namespace prefixes when mode uses them.
func New(ctx context.Context, store graph.Store, mode vocab.Mode, mappings map[string]string) (*Exporter, error) {
	tx, err := store.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	config, err := codec.ReadConfig(tx)
	if err != nil {
		return nil, err
	}

	namespaces := new(vocab.Namespaces)
	if mode.Refreshes() {
		if err := namespaces.Load(tx); err != nil {
			return nil, err
		}
	}

	translator := &vocab.Translator{
		Mode:       mode,
		Namespaces: namespaces,
		Mappings:   mappings,
	}
	return &Exporter{
		Store: store,
		Vocab: translator,
		Codec: &codec.Codec{Config: config, Vocab: translator},
	}, nil
}

// Pattern returns the statements matching pattern.
//
// Each iteration reads the store within a fresh read-only transaction.
// Names that cannot be expanded into an iri result in an error.
func (e *Exporter) Pattern(ctx context.Context, pattern rdf.TriplePattern) iter.Seq2[rdf.Statement, error] {
	return e.walk(ctx, pattern, func(w *walker) error {
		switch {
		case pattern.Subject != "":
			return w.subject(pattern.Subject, pattern.Predicate)
		case pattern.Predicate != "":
			return w.predicate(pattern.Predicate)
		default:
			return w.all()
		}
	})
}

// Rows returns the statements describing the nodes, edges and paths held in rows.
//
// Nodes produce their labels and properties, edges a single statement.
// Each node and edge is only exported once.
func (e *Exporter) Rows(ctx context.Context, rows []graph.Row) iter.Seq2[rdf.Statement, error] {
	return e.walk(ctx, rdf.TriplePattern{}, func(w *walker) error {
		w.seenNodes = make(map[graph.NodeID]struct{})
		w.seenEdges = make(map[graph.EdgeID]struct{})

		for _, row := range rows {
			for _, entry := range row {
				if err := w.entry(entry); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// errStop indicates that the consumer stopped iterating
var errStop = errors.New("stop")

func (e *Exporter) walk(ctx context.Context, pattern rdf.TriplePattern, f func(w *walker) error) iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		tx, err := e.Store.Begin(ctx, false)
		if err != nil {
			yield(rdf.Statement{}, err)
			return
		}
		defer tx.Rollback()

		w := &walker{
			Exporter: e,
			ctx:      ctx,
			tx:       tx,
			pattern:  pattern,
			yield:    yield,
		}
		if err := f(w); err != nil && err != errStop {
			yield(rdf.Statement{}, err)
		}
	}
}

// walker walks over the store within a single transaction.
type walker struct {
	*Exporter

	ctx     context.Context
	tx      graph.Tx
	pattern rdf.TriplePattern
	yield   func(rdf.Statement, error) bool

	// only used for rows
	seenNodes map[graph.NodeID]struct{}
	seenEdges map[graph.EdgeID]struct{}
}

func (w *walker) emit(statement rdf.Statement) error {
	if !w.pattern.Matches(statement) {
		return nil
	}
	if !w.yield(statement, nil) {
		return errStop
	}
	return w.ctx.Err()
}

// subject exports the statements of all nodes with the given uri.
func (w *walker) subject(uri, predicate string) error {
	for node, err := range w.tx.Nodes(graph.NodeQuery{URI: uri}) {
		if err != nil {
			return err
		}
		if err := w.node(node, predicate, true); err != nil {
			return err
		}
	}
	return nil
}

// predicate exports the statements using the given predicate.
// These are the labels or properties of nodes, and edges of the corresponding type.
func (w *walker) predicate(predicate string) error {
	query, ok := w.nodeQuery(predicate)
	if ok {
		for node, err := range w.tx.Nodes(query) {
			if err != nil {
				return err
			}
			if err := w.node(node, predicate, false); err != nil {
				return err
			}
		}
	}

	typ, ok := w.Vocab.Lookup(predicate, vocab.Relationship)
	if !ok {
		return nil
	}
	for edge, err := range w.tx.Relationships(graph.EdgeQuery{Type: typ}) {
		if err != nil {
			return err
		}
		if err := w.edge(edge, nil); err != nil {
			return err
		}
	}
	return nil
}

// nodeQuery returns a query for the nodes holding statements with the given predicate
func (w *walker) nodeQuery(predicate string) (query graph.NodeQuery, ok bool) {
	if predicate != rdf.Type {
		name, ok := w.Vocab.Lookup(predicate, vocab.Property)
		return graph.NodeQuery{Property: name}, ok
	}

	if w.pattern.Object == "" || w.pattern.IsLiteral {
		return graph.NodeQuery{Label: graph.IdentityLabel}, true
	}
	label, ok := w.Vocab.Lookup(w.pattern.Object, vocab.Label)
	return graph.NodeQuery{Label: label}, ok
}

// all exports all statements.
func (w *walker) all() error {
	for node, err := range w.tx.Nodes(graph.NodeQuery{Label: graph.IdentityLabel}) {
		if err != nil {
			return err
		}
		if err := w.node(node, "", true); err != nil {
			return err
		}
	}
	return nil
}

// node exports the statements of a single node.
// When predicate is non-empty, only statements using it are exported.
func (w *walker) node(node graph.Node, predicate string, edges bool) error {
	identity := node.Identity()
	subject, graphName := identity.Term(), identity.Context()

	if predicate == "" || predicate == rdf.Type {
		for _, label := range node.Labels {
			if label == graph.IdentityLabel {
				continue
			}

			iri, err := w.Vocab.IRI(label)
			if err != nil {
				return fmt.Errorf("label %q of %s: %w", label, identity, err)
			}
			if err := w.emit(rdf.Statement{Subject: subject, Predicate: rdf.IRI(rdf.Type), Object: rdf.IRI(iri), Context: graphName}); err != nil {
				return err
			}
		}
	}

	// name of the property bound by predicate
	var property string
	if predicate != "" {
		property, _ = w.Vocab.Lookup(predicate, vocab.Property)
	}

	keys := maps.Keys(node.Props)
	slices.Sort(keys)
	for _, key := range keys {
		if graph.IsIdentityProperty(key) || (predicate != "" && key != property) {
			continue
		}

		iri, err := w.Vocab.IRI(key)
		if err != nil {
			return fmt.Errorf("property %q of %s: %w", key, identity, err)
		}
		if predicate != "" && iri != predicate {
			continue
		}

		for _, item := range node.Props[key].Items() {
			object, err := w.Codec.Literal(iri, item)
			if err != nil {
				return fmt.Errorf("property %q of %s: %w", key, identity, err)
			}
			if err := w.emit(rdf.Statement{Subject: subject, Predicate: rdf.IRI(iri), Object: object, Context: graphName}); err != nil {
				return err
			}
		}
	}

	if !edges {
		return nil
	}

	var typ string
	if predicate != "" {
		var ok bool
		if typ, ok = w.Vocab.Lookup(predicate, vocab.Relationship); !ok {
			return nil
		}
	}
	for edge, err := range w.tx.Edges(node.ID, typ, graph.Outgoing) {
		if err != nil {
			return err
		}
		if err := w.edge(edge, &identity); err != nil {
			return err
		}
	}
	return nil
}

// edge exports a single edge.
// from is the identity of the source node, or nil if it is not known.
func (w *walker) edge(edge graph.Edge, from *rdf.ContextResource) error {
	if from == nil {
		identity, err := w.identity(edge.From)
		if err != nil {
			return err
		}
		from = &identity
	}
	to, err := w.identity(edge.To)
	if err != nil {
		return err
	}

	if from.HasGraph != to.HasGraph || from.Graph != to.Graph {
		return fmt.Errorf("%w: %s (%s to %s)", ErrCrossGraph, edge.ID, from, to)
	}

	iri, err := w.Vocab.IRI(edge.Type)
	if err != nil {
		return fmt.Errorf("edge type %q: %w", edge.Type, err)
	}
	return w.emit(rdf.Statement{Subject: from.Term(), Predicate: rdf.IRI(iri), Object: to.Term(), Context: from.Context()})
}

func (w *walker) identity(id graph.NodeID) (rdf.ContextResource, error) {
	node, ok, err := w.tx.Node(id)
	if err != nil {
		return rdf.ContextResource{}, err
	}
	if !ok {
		return rdf.ContextResource{}, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	return node.Identity(), nil
}

// entry exports a single entry of a row.
func (w *walker) entry(entry any) error {
	switch entry := entry.(type) {
	case graph.Node:
		if _, ok := w.seenNodes[entry.ID]; ok {
			return nil
		}
		w.seenNodes[entry.ID] = struct{}{}
		return w.node(entry, "", false)
	case graph.Edge:
		if _, ok := w.seenEdges[entry.ID]; ok {
			return nil
		}
		w.seenEdges[entry.ID] = struct{}{}
		return w.edge(entry, nil)
	case graph.Path:
		for _, node := range entry.Nodes {
			if err := w.entry(node); err != nil {
				return err
			}
		}
		for _, edge := range entry.Edges {
			if err := w.entry(edge); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, e := range entry {
			if err := w.entry(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("cannot export row entry of type %T", entry)
	}
}
