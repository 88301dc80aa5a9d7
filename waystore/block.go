// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package waystore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/grailbio/base/errors"
)

const (
	blockTrailerSize = 4 + // entry count
		1 + // block type
		4 // crc32 (IEEE) checksum of contents
)

var order = binary.BigEndian

// A blockBuffer is a writable block buffer.
type blockBuffer struct {
	bytes.Buffer

	count int
	prev  int64
	tmp   [binary.MaxVarintLen64]byte
}

func (b *blockBuffer) putVarint(v int64) {
	n := binary.PutVarint(b.tmp[:], v)
	b.Write(b.tmp[:n])
}

func (b *blockBuffer) putUvarint(v uint64) {
	n := binary.PutUvarint(b.tmp[:], v)
	b.Write(b.tmp[:n])
}

// Append appends an entry of an id and its values, which are delta
// encoded.
func (b *blockBuffer) Append(id int64, values []int64) {
	b.putVarint(id - b.prev)
	b.prev = id
	b.putUvarint(uint64(len(values)))
	var prev int64
	for _, v := range values {
		b.putVarint(v - prev)
		prev = v
	}
	b.count++
}

// Finish completes the block by adding the block trailer.
func (b *blockBuffer) Finish() {
	var p [4]byte
	order.PutUint32(p[:], uint32(b.count))
	b.Write(p[:])
	b.WriteByte(0) // zero type. reserved.
	order.PutUint32(p[:], crc32.ChecksumIEEE(b.Bytes()))
	b.Write(p[:])
}

// Reset resets the contents of this block. After a call to reset,
// the blockBuffer instance may be used to write a new block.
func (b *blockBuffer) Reset() {
	b.count = 0
	b.prev = 0
	b.Buffer.Reset()
}

// A block is an in-memory representation of a single block. Blocks
// maintain a current offset from which entries are scanned.
type block struct {
	p     []byte
	count int

	id     int64
	values []int64
	off    int
	err    error
}

// init initializes the block from the block contents stored at b.p.
// init returns an error of kind errors.Integrity if the block is
// malformed or corrupted.
func (b *block) init() error {
	if len(b.p) < blockTrailerSize {
		return errors.E(errors.Integrity, "waystore: invalid block: too small")
	}
	if got, want := crc32.ChecksumIEEE(b.p[:len(b.p)-4]), order.Uint32(b.p[len(b.p)-4:]); got != want {
		return errors.E(errors.Integrity, fmt.Sprintf("waystore: invalid checksum: expected %x, got %x", want, got))
	}
	off := len(b.p) - blockTrailerSize
	b.count = int(order.Uint32(b.p[off:]))
	if btype := b.p[off+4]; btype != 0 {
		return errors.E(errors.Integrity, fmt.Sprintf("waystore: invalid block type %d", btype))
	}
	b.p = b.p[:off]
	b.id = 0
	b.values = b.values[:0]
	b.off = 0
	b.err = nil
	return nil
}

func (b *block) varint() int64 {
	v, n := binary.Varint(b.p[b.off:])
	if n <= 0 {
		b.err = errors.E(errors.Integrity, "waystore: corrupt block entry")
		b.off = len(b.p)
		return 0
	}
	b.off += n
	return v
}

func (b *block) uvarint() uint64 {
	v, n := binary.Uvarint(b.p[b.off:])
	if n <= 0 {
		b.err = errors.E(errors.Integrity, "waystore: corrupt block entry")
		b.off = len(b.p)
		return 0
	}
	b.off += n
	return v
}

// Scan reads the entry at the current position and then advances the
// block's position to the next entry. Scan returns false when the
// position is at or beyond the end of the block, or the block is
// corrupt; Err distinguishes the two.
func (b *block) Scan() bool {
	if b.err != nil || b.off >= len(b.p) {
		return false
	}
	b.id += b.varint()
	nvalue := b.uvarint()
	if b.err != nil {
		return false
	}
	if nvalue > uint64(len(b.p)-b.off) {
		b.err = errors.E(errors.Integrity, "waystore: corrupt block entry")
		return false
	}
	b.values = b.values[:0]
	var v int64
	for i := uint64(0); i < nvalue; i++ {
		v += b.varint()
		b.values = append(b.values, v)
	}
	return b.err == nil
}

// ID returns the id of the last scanned entry.
func (b *block) ID() int64 { return b.id }

// Values returns the values of the last scanned entry. They are valid
// until the next call to Scan.
func (b *block) Values() []int64 { return b.values }

// Err returns the error, if any, encountered while scanning.
func (b *block) Err() error { return b.err }
