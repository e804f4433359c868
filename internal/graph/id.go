package graph

import (
	"encoding/binary"
	"errors"
	"strconv"
)

// NodeID uniquely identifies a node within a store.
// The zero NodeID is not valid.
type NodeID uint64

// EdgeID uniquely identifies an edge within a store.
// The zero EdgeID is not valid.
type EdgeID uint64

// idLen is the size of an encoded id in bytes
const idLen = 8

func (id NodeID) String() string { return "n" + strconv.FormatUint(uint64(id), 10) }
func (id EdgeID) String() string { return "e" + strconv.FormatUint(uint64(id), 10) }

// encodeID encodes id as big endian, so that encoded ids compare like their numerical values.
func encodeID[ID ~uint64](id ID) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, idLen), uint64(id))
}

var errDecodeID = errors.New("decodeID: src too short")

func decodeID[ID ~uint64](dest *ID, src []byte) error {
	if len(src) < idLen {
		return errDecodeID
	}
	*dest = ID(binary.BigEndian.Uint64(src))
	return nil
}
