// Package ingest materializes rdf statements into a property graph, and removes them again.
//
// Statements are classified one at a time and accumulated into a batch.
// Once a batch holds enough statements, it is applied to the store in a single transaction.
package ingest

import (
	"context"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/codec"
	"github.com/FAU-CDI/pgrdf/internal/graph"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/stats"
	"github.com/FAU-CDI/pgrdf/internal/vocab"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// operation distinguishes loading from deleting
type operation int

const (
	opLoad operation = iota
	opDelete
)

// pending holds the labels and properties of a single resource accumulated within a batch.
type pending struct {
	labels     map[string]int // label => number of statements
	labelOrder []string

	props     map[string]*pendingProp
	propOrder []string
}

// pendingProp holds the values of a single property.
type pendingProp struct {
	predicate  string
	multi      bool
	values     []graph.Scalar // distinct values
	statements int
}

func newPending() *pending {
	return &pending{
		labels: make(map[string]int),
		props:  make(map[string]*pendingProp),
	}
}

func (p *pending) addLabel(label string) {
	if _, ok := p.labels[label]; !ok {
		p.labelOrder = append(p.labelOrder, label)
	}
	p.labels[label]++
}

func (p *pending) addProp(name, predicate string, value graph.Scalar, multi bool) {
	prop, ok := p.props[name]
	if !ok {
		prop = &pendingProp{predicate: predicate, multi: multi}
		p.props[name] = prop
		p.propOrder = append(p.propOrder, name)
	}
	prop.statements++

	if !multi {
		prop.values = []graph.Scalar{value}
		return
	}
	for _, v := range prop.values {
		if v.Equal(value) {
			return
		}
	}
	prop.values = append(prop.values, value)
}

// statements returns the number of statements accumulated for this resource.
func (p *pending) statements() (count int) {
	for _, c := range p.labels {
		count += c
	}
	for _, prop := range p.props {
		count += prop.statements
	}
	return
}

// pendingEdge is an edge accumulated within a batch.
type pendingEdge struct {
	from, to rdf.ContextResource
	typ      string

	// uncounted is set for edges created alongside a label.
	// They do not count towards the statements that could not be deleted.
	uncounted bool
}

// blank checks if either endpoint of this edge is a blank node
func (e pendingEdge) blank() bool {
	return e.from.IsBlank() || e.to.IsBlank()
}

// batch holds everything accumulated between two commits.
type batch struct {
	order     []rdf.ContextResource
	resources map[rdf.ContextResource]*pending
	edges     []pendingEdge

	mapped     int // statements mapped within this batch
	notDeleted int // statements that could not be deleted
	blank      int // statements not deleted because they involve a blank node
}

func newBatch() batch {
	return batch{resources: make(map[rdf.ContextResource]*pending)}
}

func (b *batch) resource(res rdf.ContextResource) *pending {
	p, ok := b.resources[res]
	if !ok {
		p = newPending()
		b.resources[res] = p
		b.order = append(b.order, res)
	}
	return p
}

func (b *batch) empty() bool {
	return len(b.order) == 0 && len(b.edges) == 0
}

// rename replaces namespace prefixes in all names held by this batch.
func (b *batch) rename(codec *codec.Codec, renamed map[string]string) {
	rename := func(name string) string { return vocab.Rename(name, renamed) }

	for _, p := range b.resources {
		labels := make(map[string]int, len(p.labels))
		for label, count := range p.labels {
			labels[rename(label)] = count
		}
		p.labels = labels
		for i, label := range p.labelOrder {
			p.labelOrder[i] = rename(label)
		}

		props := make(map[string]*pendingProp, len(p.props))
		for name, prop := range p.props {
			for i, value := range prop.values {
				prop.values[i] = codec.Rename(prop.predicate, value, renamed)
			}
			props[rename(name)] = prop
		}
		p.props = props
		for i, name := range p.propOrder {
			p.propOrder[i] = rename(name)
		}
	}

	for i := range b.edges {
		b.edges[i].typ = rename(b.edges[i].typ)
	}
}

// session holds the state of a single load or delete operation.
type session struct {
	op     operation
	config Config
	store  graph.Store
	stats  *stats.Stats

	vocab *vocab.Translator
	codec *codec.Codec

	batch batch

	parsed     int // statements parsed
	mapped     int // statements mapped in committed batches
	notDeleted int // statements not deleted in committed batches
	blank      int // statements involving blank nodes in committed batches

	outcome Outcome
}

// newSession creates a new session, reading the namespace table from the store.
func newSession(ctx context.Context, op operation, store graph.Store, config Config, st *stats.Stats) (*session, error) {
	namespaces := new(vocab.Namespaces)
	if config.HandleVocabURIs.Refreshes() {
		tx, err := store.Begin(ctx, false)
		if err != nil {
			return nil, err
		}
		err = namespaces.Load(tx)
		tx.Rollback()
		if err != nil {
			return nil, err
		}
	}

	prefixes := maps.Keys(config.Prefixes)
	slices.Sort(prefixes)
	for _, prefix := range prefixes {
		if err := namespaces.Add(prefix, config.Prefixes[prefix]); err != nil {
			return nil, err
		}
	}

	translator := &vocab.Translator{
		Mode:        config.HandleVocabURIs,
		Namespaces:  namespaces,
		Mappings:    config.VocabMappings,
		Neo4jNaming: config.ApplyNeo4jNaming,
	}

	return &session{
		op:     op,
		config: config,
		store:  store,
		stats:  st,

		vocab: translator,
		codec: &codec.Codec{Config: config.codec(), Vocab: translator},

		batch: newBatch(),
	}, nil
}

// name translates an iri into a name.
//
// When deleting, no new namespace prefixes are generated.
// Instead, ok is false for iris that cannot have been loaded.
func (s *session) name(iri string, role vocab.Role) (name string, ok bool, err error) {
	if s.op == opDelete {
		name, ok = s.vocab.Lookup(iri, role)
		return name, ok, nil
	}
	name, err = s.vocab.Name(iri, role)
	return name, err == nil, err
}

// handle classifies a single statement into the current batch.
// It reports if the batch should be committed.
func (s *session) handle(statement rdf.Statement) (commit bool) {
	s.parsed++

	predicate := statement.Predicate.Value
	if s.config.excluded(predicate) {
		return false
	}

	subject := rdf.Resource(statement.Subject, statement.Context)

	mapped, err := s.classify(subject, predicate, statement)
	if err != nil {
		s.skip(subject, fmt.Errorf("statement %s: %w", statement, err))
		return false
	}
	if !mapped {
		return false
	}

	s.batch.mapped++
	return s.batch.mapped >= s.config.CommitSize
}

func (s *session) classify(subject rdf.ContextResource, predicate string, statement rdf.Statement) (mapped bool, err error) {
	object := statement.Object

	switch {
	case object.IsLiteral():
		value, ok, err := s.codec.Scalar(predicate, object)
		if err != nil || !ok {
			// rejected by the language filter
			return false, err
		}

		name, ok, err := s.name(predicate, vocab.Property)
		if err != nil {
			return false, err
		}
		if !ok {
			s.batch.notDeleted++
			return true, nil
		}

		s.batch.resource(subject).addProp(name, predicate, value, s.config.multivalued(predicate))
		return true, nil

	case predicate == rdf.Type && s.config.HandleRDFTypes != TypesAsNodes && !object.IsBlank():
		label, ok, err := s.name(object.Value, vocab.Label)
		if err != nil {
			return false, err
		}
		if !ok {
			s.batch.notDeleted++
			return true, nil
		}

		s.batch.resource(subject).addLabel(label)

		if s.config.HandleRDFTypes == TypesAsLabelsAndNodes {
			if _, err := s.edge(subject, predicate, statement, true); err != nil {
				return false, err
			}
		}
		return true, nil

	default:
		ok, err := s.edge(subject, predicate, statement, false)
		if err != nil {
			return false, err
		}
		if !ok {
			s.batch.notDeleted++
		}
		return true, nil
	}
}

// edge registers an edge for the given statement
func (s *session) edge(subject rdf.ContextResource, predicate string, statement rdf.Statement, uncounted bool) (ok bool, err error) {
	typ, ok, err := s.name(predicate, vocab.Relationship)
	if err != nil || !ok {
		return ok, err
	}

	object := rdf.Resource(statement.Object, statement.Context)

	s.batch.resource(subject)
	s.batch.resource(object)
	s.batch.edges = append(s.batch.edges, pendingEdge{from: subject, to: object, typ: typ, uncounted: uncounted})
	return true, nil
}
