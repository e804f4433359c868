// Package graph implements the property graph that statements are materialized into.
//
// A property graph consists of nodes carrying a set of labels and a map of properties,
// connected by typed, directed edges.
// Every node carries the identity label [IdentityLabel] and the identity properties [URIProperty] and (optionally) [GraphProperty].
package graph

import (
	"context"
	"errors"
	"iter"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"golang.org/x/exp/slices"
)

const (
	// IdentityLabel is carried by every node.
	IdentityLabel = "Resource"

	// URIProperty and GraphProperty hold the identity of a node.
	URIProperty   = "uri"
	GraphProperty = "graphUri"
)

// IsIdentityProperty checks if key names an identity property.
func IsIdentityProperty(key string) bool {
	return key == URIProperty || key == GraphProperty
}

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrEdgeNotFound        = errors.New("edge not found")
	ErrReadOnly            = errors.New("transaction is read-only")
	ErrConstraintViolation = errors.New("identity constraint violated")
	ErrIdentityProperty    = errors.New("identity properties cannot be modified")
	ErrMissingConstraint   = errors.New("identity constraint does not exist")
)

// Store is a property graph store.
type Store interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context, writable bool) (Tx, error)

	// HasIdentityConstraint checks if the store enforces that at most one node exists for each identity.
	HasIdentityConstraint(ctx context.Context) (bool, error)
}

// Tx is a transaction on a store.
type Tx interface {
	// Lookup returns the nodes with the given identity.
	Lookup(identity rdf.ContextResource) ([]NodeID, error)

	// CreateNode creates a node with the given identity.
	// The node carries the identity label and identity properties, and nothing else.
	CreateNode(identity rdf.ContextResource) (NodeID, error)

	// Node returns the node with the given id.
	Node(id NodeID) (Node, bool, error)

	// DeleteNode deletes the given node along with all of its edges.
	DeleteNode(id NodeID) error

	// AddLabel and RemoveLabel add or remove a label, and report if the node was changed.
	AddLabel(id NodeID, label string) (bool, error)
	RemoveLabel(id NodeID, label string) (bool, error)

	// Property returns a property of the given node.
	Property(id NodeID, key string) (Value, bool, error)

	// SetProperty sets a property, RemoveProperty removes it and reports if it existed.
	// Identity properties cannot be changed.
	SetProperty(id NodeID, key string, value Value) error
	RemoveProperty(id NodeID, key string) (bool, error)

	// Degree counts the edges of the given type and direction of a node.
	// An empty type counts edges of all types.
	Degree(id NodeID, typ string, dir Direction) (int, error)

	// Edges enumerates the edges of the given type and direction of a node.
	// An empty type enumerates edges of all types.
	Edges(id NodeID, typ string, dir Direction) iter.Seq2[Edge, error]

	// Edge returns the edge with the given id.
	Edge(id EdgeID) (Edge, bool, error)

	// CreateEdge creates a new edge between two existing nodes.
	CreateEdge(from, to NodeID, typ string) (EdgeID, error)

	// DeleteEdge deletes an edge.
	DeleteEdge(id EdgeID) error

	// Nodes enumerates all nodes matching the query.
	Nodes(query NodeQuery) iter.Seq2[Node, error]

	// Relationships enumerates all edges matching the query.
	Relationships(query EdgeQuery) iter.Seq2[Edge, error]

	// Meta and SetMeta read and write store-wide metadata.
	Meta(key string) ([]byte, bool, error)
	SetMeta(key string, value []byte) error

	Commit() error
	Rollback() error
}

// Direction is the direction of an edge as seen from one of its nodes.
type Direction uint8

const (
	Outgoing Direction = iota + 1
	Incoming
)

// Node is a node within the property graph.
type Node struct {
	ID     NodeID           `json:"id"`
	Labels []string         `json:"labels"` // sorted
	Props  map[string]Value `json:"properties"`
}

// HasLabel checks if this node has the given label.
func (node Node) HasLabel(label string) bool {
	_, ok := slices.BinarySearch(node.Labels, label)
	return ok
}

// Identity returns the identity of this node.
func (node Node) Identity() rdf.ContextResource {
	var identity rdf.ContextResource
	if uri, ok := node.Props[URIProperty].Scalar(); ok {
		identity.URI = uri.Str
	}
	if graph, ok := node.Props[GraphProperty].Scalar(); ok {
		identity.Graph = graph.Str
		identity.HasGraph = true
	}
	return identity
}

// IsPlaceholder checks if this node holds nothing but its identity.
func (node Node) IsPlaceholder() bool {
	if len(node.Labels) != 1 || node.Labels[0] != IdentityLabel {
		return false
	}
	for key := range node.Props {
		if !IsIdentityProperty(key) {
			return false
		}
	}
	return true
}

// Edge is a typed, directed edge.
type Edge struct {
	ID   EdgeID `json:"id"`
	Type string `json:"type"`
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// NodeQuery selects nodes.
// Empty fields match any node.
type NodeQuery struct {
	URI      string // value of the uri property, regardless of graph
	Label    string
	Property string

	// Value restricts Property to values equal to or containing Value.
	Value *Scalar
}

// EdgeQuery selects edges.
type EdgeQuery struct {
	Type string
}

// Row is a single row of a query result.
// Each entry is a [Node], an [Edge], a [Path], or a []any of these.
type Row []any

// Path is a sequence of nodes connected by edges.
type Path struct {
	Nodes []Node
	Edges []Edge
}
