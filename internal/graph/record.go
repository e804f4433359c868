package graph

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/zeebo/xxh3"
)

// nodeRecord is the stored form of a node
type nodeRecord struct {
	Labels []string
	Props  map[string]propRecord
}

// propRecord is the stored form of a Value
type propRecord struct {
	Array bool
	Items []Scalar
}

func (rec nodeRecord) node(id NodeID) Node {
	node := Node{
		ID:     id,
		Labels: append([]string(nil), rec.Labels...),
		Props:  make(map[string]Value, len(rec.Props)),
	}
	for key, prop := range rec.Props {
		node.Props[key] = Value{items: prop.Items, array: prop.Array}
	}
	return node
}

func marshalNode(rec nodeRecord) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode node: %w", err)
	}
	return buffer.Bytes(), nil
}

func unmarshalNode(dest *nodeRecord, src []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(src)).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode node: %w", err)
	}
	if dest.Props == nil {
		dest.Props = make(map[string]propRecord)
	}
	return nil
}

// marshalEdge encodes an edge as from, to and type
func marshalEdge(edge Edge) []byte {
	result := make([]byte, 0, 2*idLen+len(edge.Type))
	result = append(result, encodeID(edge.From)...)
	result = append(result, encodeID(edge.To)...)
	result = append(result, edge.Type...)
	return result
}

var errDecodeEdge = errors.New("unmarshalEdge: src too short")

func unmarshalEdge(dest *Edge, id EdgeID, src []byte) error {
	if len(src) < 2*idLen {
		return errDecodeEdge
	}
	dest.ID = id
	if err := decodeID(&dest.From, src); err != nil {
		return err
	}
	if err := decodeID(&dest.To, src[idLen:]); err != nil {
		return err
	}
	dest.Type = string(src[2*idLen:])
	return nil
}

// adjacencyKey returns the key of an adjacency entry.
//
// Adjacency keys are laid out as node, direction, type, 0x00, edge so that
// all edges of a node in one direction (and optionally of one type) share a common prefix.
func adjacencyKey(node NodeID, dir Direction, typ string, edge EdgeID) []byte {
	return append(adjacencyPrefix(node, dir, typ), encodeID(edge)...)
}

// adjacencyPrefix returns the prefix of adjacency keys.
// When typ is empty, the prefix matches edges of all types.
func adjacencyPrefix(node NodeID, dir Direction, typ string) []byte {
	result := make([]byte, 0, idLen+1+len(typ)+1+idLen)
	result = append(result, encodeID(node)...)
	result = append(result, byte(dir))
	if typ != "" {
		result = append(result, typ...)
		result = append(result, 0)
	}
	return result
}

var errDecodeAdjacency = errors.New("decodeAdjacency: key too short")

// decodeAdjacency decodes the type and edge of an adjacency key
func decodeAdjacency(key []byte) (typ string, edge EdgeID, err error) {
	if len(key) < 2*idLen+2 {
		return "", 0, errDecodeAdjacency
	}
	typ = string(key[idLen+1 : len(key)-idLen-1])
	err = decodeID(&edge, key[len(key)-idLen:])
	return
}

// uriHashLen is the length of the hash of a uri
const uriHashLen = 16

// uriHash returns the prefix of identity index keys for nodes with the given uri.
func uriHash(uri string) []byte {
	hash := xxh3.Hash128([]byte(uri))

	result := make([]byte, uriHashLen)
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// identityKey returns the key of a node within the identity index.
func identityKey(identity rdf.ContextResource, node NodeID) []byte {
	return append(uriHash(identity.URI), encodeID(node)...)
}
