// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/must"
)

const (
	// BlockBytes is the on-disk size of every block.
	BlockBytes = 4096
	// RecordSize is the on-disk size of a node record.
	RecordSize = 8 + // id
		8 + // lat
		8 // lon
	// BlockSize is the maximum number of nodes in a block.
	BlockSize = (BlockBytes - 2) / RecordSize

	countSize = 2
)

var order = binary.BigEndian

// Node is the stored location of a node.
type Node struct {
	ID       int64
	Lon, Lat float64
}

func (n Node) String() string {
	return fmt.Sprintf("node %d (%g, %g)", n.ID, n.Lon, n.Lat)
}

func putNode(p []byte, n Node) {
	order.PutUint64(p, uint64(n.ID))
	order.PutUint64(p[8:], math.Float64bits(n.Lat))
	order.PutUint64(p[16:], math.Float64bits(n.Lon))
}

func getNode(p []byte) Node {
	return Node{
		ID:  int64(order.Uint64(p)),
		Lat: math.Float64frombits(order.Uint64(p[8:])),
		Lon: math.Float64frombits(order.Uint64(p[16:])),
	}
}

// A Block is a run of at most BlockSize nodes, sorted by id.
type Block struct {
	Nodes []Node
}

// Len returns the number of nodes in the block.
func (b *Block) Len() int { return len(b.Nodes) }

// Full tells whether the block holds BlockSize nodes.
func (b *Block) Full() bool { return len(b.Nodes) >= BlockSize }

// Append appends n to the block. Append panics if the block is full.
func (b *Block) Append(n Node) {
	must.Truef(!b.Full(), "blockstore: append to full block")
	b.Nodes = append(b.Nodes, n)
}

// Reset empties the block, retaining its storage.
func (b *Block) Reset() {
	b.Nodes = b.Nodes[:0]
}

// Range returns the smallest and largest ids in the block, which must
// not be empty.
func (b *Block) Range() (start, end int64) {
	return b.Nodes[0].ID, b.Nodes[len(b.Nodes)-1].ID
}

// Find returns the node with the provided id, and whether it is in
// the block.
func (b *Block) Find(id int64) (Node, bool) {
	i := sort.Search(len(b.Nodes), func(i int) bool {
		return b.Nodes[i].ID >= id
	})
	if i < len(b.Nodes) && b.Nodes[i].ID == id {
		return b.Nodes[i], true
	}
	return Node{}, false
}

// Encode encodes the block into p, which must be at least BlockBytes
// long. Unused record slots and the reserved tail are zeroed.
func (b *Block) Encode(p []byte) {
	p = p[:BlockBytes]
	order.PutUint16(p, uint16(len(b.Nodes)))
	off := countSize
	for _, n := range b.Nodes {
		putNode(p[off:], n)
		off += RecordSize
	}
	for i := off; i < len(p); i++ {
		p[i] = 0
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Block) MarshalBinary() ([]byte, error) {
	p := make([]byte, BlockBytes)
	b.Encode(p)
	return p, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It returns an
// error of kind errors.Integrity if p is not a valid block.
func (b *Block) UnmarshalBinary(p []byte) error {
	if len(p) != BlockBytes {
		return errors.E(errors.Integrity, fmt.Sprintf("blockstore: block is %d bytes, want %d", len(p), BlockBytes))
	}
	n := int(order.Uint16(p))
	if n > BlockSize {
		return errors.E(errors.Integrity, fmt.Sprintf("blockstore: block has %d records, at most %d fit", n, BlockSize))
	}
	if cap(b.Nodes) < n {
		b.Nodes = make([]Node, n)
	} else {
		b.Nodes = b.Nodes[:n]
	}
	off := countSize
	for i := range b.Nodes {
		b.Nodes[i] = getNode(p[off:])
		off += RecordSize
	}
	return nil
}
