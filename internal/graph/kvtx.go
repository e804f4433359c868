package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/FAU-CDI/pgrdf/internal/kv"
	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"golang.org/x/exp/slices"
)

// kvTx implements Tx for the KV store
type kvTx struct {
	txn        kv.Txn
	writable   bool
	constraint bool
}

var (
	errEmptyURI  = errors.New("identity has an empty uri")
	errEmptyType = errors.New("edge type must not be empty")
	errStop      = errors.New("iteration stopped")

	errDecodeDegree = errors.New("degree counter has invalid length")
)

func (tx *kvTx) checkWritable() error {
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

// next increments and returns the sequence stored under key
func (tx *kvTx) next(key string) (uint64, error) {
	value, _, err := tx.txn.Get(tableMeta, []byte(key))
	if err != nil {
		return 0, err
	}

	var id uint64
	if len(value) == 8 {
		id = binary.BigEndian.Uint64(value)
	}
	id++

	if err := tx.txn.Set(tableMeta, []byte(key), binary.BigEndian.AppendUint64(nil, id)); err != nil {
		return 0, err
	}
	return id, nil
}

//
// NODES
//

func (tx *kvTx) Lookup(identity rdf.ContextResource) (ids []NodeID, err error) {
	err = tx.txn.Iterate(tableIdentity, uriHash(identity.URI), func(key, value []byte) error {
		var id NodeID
		if err := decodeID(&id, key[uriHashLen:]); err != nil {
			return err
		}

		rec, ok, err := tx.record(id)
		if err != nil {
			return err
		}
		if ok && rec.node(id).Identity() == identity {
			ids = append(ids, id)
		}
		return nil
	})
	return
}

func (tx *kvTx) CreateNode(identity rdf.ContextResource) (NodeID, error) {
	if err := tx.checkWritable(); err != nil {
		return 0, err
	}
	if identity.URI == "" {
		return 0, errEmptyURI
	}

	if tx.constraint {
		existing, err := tx.Lookup(identity)
		if err != nil {
			return 0, err
		}
		if len(existing) > 0 {
			return 0, fmt.Errorf("%w: %s already exists", ErrConstraintViolation, identity)
		}
	}

	seq, err := tx.next(metaNodeSeq)
	if err != nil {
		return 0, err
	}
	id := NodeID(seq)

	rec := nodeRecord{
		Labels: []string{IdentityLabel},
		Props: map[string]propRecord{
			URIProperty: {Items: []Scalar{String(identity.URI)}},
		},
	}
	if identity.HasGraph {
		rec.Props[GraphProperty] = propRecord{Items: []Scalar{String(identity.Graph)}}
	}

	if err := tx.putRecord(id, rec); err != nil {
		return 0, err
	}
	if err := tx.txn.Set(tableIdentity, identityKey(identity, id), nil); err != nil {
		return 0, err
	}
	return id, nil
}

// record reads the record of the given node
func (tx *kvTx) record(id NodeID) (rec nodeRecord, ok bool, err error) {
	data, ok, err := tx.txn.Get(tableNodes, encodeID(id))
	if err != nil || !ok {
		return rec, ok, err
	}
	if err := unmarshalNode(&rec, data); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// mustRecord is like record, but returns ErrNodeNotFound when the node does not exist
func (tx *kvTx) mustRecord(id NodeID) (nodeRecord, error) {
	rec, ok, err := tx.record(id)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return rec, nil
}

func (tx *kvTx) putRecord(id NodeID, rec nodeRecord) error {
	data, err := marshalNode(rec)
	if err != nil {
		return err
	}
	return tx.txn.Set(tableNodes, encodeID(id), data)
}

func (tx *kvTx) Node(id NodeID) (Node, bool, error) {
	rec, ok, err := tx.record(id)
	if err != nil || !ok {
		return Node{}, ok, err
	}
	return rec.node(id), true, nil
}

func (tx *kvTx) DeleteNode(id NodeID) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	rec, err := tx.mustRecord(id)
	if err != nil {
		return err
	}

	var edges []EdgeID
	for _, dir := range []Direction{Outgoing, Incoming} {
		for edge, err := range tx.Edges(id, "", dir) {
			if err != nil {
				return err
			}
			edges = append(edges, edge.ID)
		}
	}
	for _, edge := range edges {
		if err := tx.DeleteEdge(edge); err != nil && !errors.Is(err, ErrEdgeNotFound) {
			return err
		}
	}

	if err := tx.txn.Delete(tableIdentity, identityKey(rec.node(id).Identity(), id)); err != nil {
		return err
	}
	return tx.txn.Delete(tableNodes, encodeID(id))
}

func (tx *kvTx) AddLabel(id NodeID, label string) (bool, error) {
	if err := tx.checkWritable(); err != nil {
		return false, err
	}
	rec, err := tx.mustRecord(id)
	if err != nil {
		return false, err
	}

	index, ok := slices.BinarySearch(rec.Labels, label)
	if ok {
		return false, nil
	}
	rec.Labels = slices.Insert(rec.Labels, index, label)
	return true, tx.putRecord(id, rec)
}

func (tx *kvTx) RemoveLabel(id NodeID, label string) (bool, error) {
	if err := tx.checkWritable(); err != nil {
		return false, err
	}
	if label == IdentityLabel {
		return false, fmt.Errorf("%w: label %q", ErrIdentityProperty, label)
	}
	rec, err := tx.mustRecord(id)
	if err != nil {
		return false, err
	}

	index, ok := slices.BinarySearch(rec.Labels, label)
	if !ok {
		return false, nil
	}
	rec.Labels = slices.Delete(rec.Labels, index, index+1)
	return true, tx.putRecord(id, rec)
}

func (tx *kvTx) Property(id NodeID, key string) (Value, bool, error) {
	rec, err := tx.mustRecord(id)
	if err != nil {
		return Value{}, false, err
	}
	prop, ok := rec.Props[key]
	if !ok {
		return Value{}, false, nil
	}
	return Value{items: prop.Items, array: prop.Array}, true, nil
}

func (tx *kvTx) SetProperty(id NodeID, key string, value Value) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if IsIdentityProperty(key) {
		return fmt.Errorf("%w: %q", ErrIdentityProperty, key)
	}
	if value.IsZero() {
		_, err := tx.RemoveProperty(id, key)
		return err
	}

	rec, err := tx.mustRecord(id)
	if err != nil {
		return err
	}
	rec.Props[key] = propRecord{Array: value.array, Items: value.Items()}
	return tx.putRecord(id, rec)
}

func (tx *kvTx) RemoveProperty(id NodeID, key string) (bool, error) {
	if err := tx.checkWritable(); err != nil {
		return false, err
	}
	if IsIdentityProperty(key) {
		return false, fmt.Errorf("%w: %q", ErrIdentityProperty, key)
	}

	rec, err := tx.mustRecord(id)
	if err != nil {
		return false, err
	}
	if _, ok := rec.Props[key]; !ok {
		return false, nil
	}
	delete(rec.Props, key)
	return true, tx.putRecord(id, rec)
}

func (tx *kvTx) Nodes(query NodeQuery) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		visit := func(id NodeID, data []byte) error {
			var rec nodeRecord
			if err := unmarshalNode(&rec, data); err != nil {
				return err
			}
			node := rec.node(id)
			if !query.matches(node) {
				return nil
			}
			if !yield(node, nil) {
				return errStop
			}
			return nil
		}

		var err error
		if query.URI != "" {
			// use the identity index
			err = tx.txn.Iterate(tableIdentity, uriHash(query.URI), func(key, value []byte) error {
				var id NodeID
				if err := decodeID(&id, key[uriHashLen:]); err != nil {
					return err
				}
				data, ok, err := tx.txn.Get(tableNodes, encodeID(id))
				if err != nil || !ok {
					return err
				}
				return visit(id, data)
			})
		} else {
			err = tx.txn.Iterate(tableNodes, nil, func(key, value []byte) error {
				var id NodeID
				if err := decodeID(&id, key); err != nil {
					return err
				}
				return visit(id, value)
			})
		}

		if err != nil && !errors.Is(err, errStop) {
			yield(Node{}, err)
		}
	}
}

func (query NodeQuery) matches(node Node) bool {
	if query.URI != "" {
		uri, ok := node.Props[URIProperty].Scalar()
		if !ok || uri.Str != query.URI {
			return false
		}
	}
	if query.Label != "" && !node.HasLabel(query.Label) {
		return false
	}
	if query.Property != "" {
		value, ok := node.Props[query.Property]
		if !ok {
			return false
		}
		if query.Value != nil && !value.Contains(*query.Value) {
			return false
		}
	}
	return true
}

//
// EDGES
//

func (tx *kvTx) Degree(id NodeID, typ string, dir Direction) (int, error) {
	return tx.degree(adjacencyPrefix(id, dir, typ))
}

// degree reads the counter stored under the given adjacency prefix
func (tx *kvTx) degree(key []byte) (int, error) {
	value, ok, err := tx.txn.Get(tableDegree, key)
	if err != nil || !ok {
		return 0, err
	}
	if len(value) != 8 {
		return 0, errDecodeDegree
	}
	return int(binary.BigEndian.Uint64(value)), nil
}

// adjustDegree adds delta to the degree of id for typ and for all types.
func (tx *kvTx) adjustDegree(id NodeID, dir Direction, typ string, delta int) error {
	for _, key := range [][]byte{adjacencyPrefix(id, dir, typ), adjacencyPrefix(id, dir, "")} {
		count, err := tx.degree(key)
		if err != nil {
			return err
		}
		count += delta

		if count <= 0 {
			err = tx.txn.Delete(tableDegree, key)
		} else {
			err = tx.txn.Set(tableDegree, key, binary.BigEndian.AppendUint64(nil, uint64(count)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (tx *kvTx) Edges(id NodeID, typ string, dir Direction) iter.Seq2[Edge, error] {
	return func(yield func(Edge, error) bool) {
		err := tx.txn.Iterate(tableAdjacency, adjacencyPrefix(id, dir, typ), func(key, value []byte) error {
			var edge Edge
			var err error

			edge.Type, edge.ID, err = decodeAdjacency(key)
			if err != nil {
				return err
			}

			var peer NodeID
			if err := decodeID(&peer, value); err != nil {
				return err
			}

			if dir == Outgoing {
				edge.From, edge.To = id, peer
			} else {
				edge.From, edge.To = peer, id
			}

			if !yield(edge, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(Edge{}, err)
		}
	}
}

func (tx *kvTx) Edge(id EdgeID) (edge Edge, ok bool, err error) {
	data, ok, err := tx.txn.Get(tableEdges, encodeID(id))
	if err != nil || !ok {
		return edge, ok, err
	}
	if err := unmarshalEdge(&edge, id, data); err != nil {
		return edge, false, err
	}
	return edge, true, nil
}

func (tx *kvTx) CreateEdge(from, to NodeID, typ string) (EdgeID, error) {
	if err := tx.checkWritable(); err != nil {
		return 0, err
	}
	if typ == "" {
		return 0, errEmptyType
	}
	for _, node := range []NodeID{from, to} {
		if _, err := tx.mustRecord(node); err != nil {
			return 0, err
		}
	}

	seq, err := tx.next(metaEdgeSeq)
	if err != nil {
		return 0, err
	}
	id := EdgeID(seq)

	if err := tx.txn.Set(tableEdges, encodeID(id), marshalEdge(Edge{ID: id, Type: typ, From: from, To: to})); err != nil {
		return 0, err
	}
	if err := tx.txn.Set(tableAdjacency, adjacencyKey(from, Outgoing, typ, id), encodeID(to)); err != nil {
		return 0, err
	}
	if err := tx.txn.Set(tableAdjacency, adjacencyKey(to, Incoming, typ, id), encodeID(from)); err != nil {
		return 0, err
	}
	if err := tx.adjustDegree(from, Outgoing, typ, 1); err != nil {
		return 0, err
	}
	if err := tx.adjustDegree(to, Incoming, typ, 1); err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *kvTx) DeleteEdge(id EdgeID) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	edge, ok, err := tx.Edge(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}

	if err := tx.txn.Delete(tableAdjacency, adjacencyKey(edge.From, Outgoing, edge.Type, id)); err != nil {
		return err
	}
	if err := tx.txn.Delete(tableAdjacency, adjacencyKey(edge.To, Incoming, edge.Type, id)); err != nil {
		return err
	}
	if err := tx.adjustDegree(edge.From, Outgoing, edge.Type, -1); err != nil {
		return err
	}
	if err := tx.adjustDegree(edge.To, Incoming, edge.Type, -1); err != nil {
		return err
	}
	return tx.txn.Delete(tableEdges, encodeID(id))
}

func (tx *kvTx) Relationships(query EdgeQuery) iter.Seq2[Edge, error] {
	return func(yield func(Edge, error) bool) {
		err := tx.txn.Iterate(tableEdges, nil, func(key, value []byte) error {
			var id EdgeID
			if err := decodeID(&id, key); err != nil {
				return err
			}

			var edge Edge
			if err := unmarshalEdge(&edge, id, value); err != nil {
				return err
			}
			if query.Type != "" && edge.Type != query.Type {
				return nil
			}

			if !yield(edge, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(Edge{}, err)
		}
	}
}

//
// META
//

func (tx *kvTx) Meta(key string) ([]byte, bool, error) {
	return tx.txn.Get(tableMeta, []byte(metaUserPrefix+key))
}

func (tx *kvTx) SetMeta(key string, value []byte) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return tx.txn.Set(tableMeta, []byte(metaUserPrefix+key), value)
}

func (tx *kvTx) Commit() error   { return tx.txn.Commit() }
func (tx *kvTx) Rollback() error { return tx.txn.Rollback() }
