// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"io/ioutil"
	"sort"

	"github.com/grailbio/base/errors"
)

const (
	indexMagic   = "PIDX"
	indexVersion = 1

	indexHeaderSize = 4 + // magic
		4 + // version
		4 // count
	indexEntrySize = 8 + // start
		8 + // end
		8 // position
	indexTrailerSize = 4 // crc32
)

// Entry locates the block holding the ids [Start, End].
type Entry struct {
	Start, End int64
	// Position is the byte offset of the block in the data file.
	Position int64
}

// Contains tells whether id lies within the entry's range.
func (e Entry) Contains(id int64) bool {
	return e.Start <= id && id <= e.End
}

// Index is an ordered list of non-overlapping entries. The zero Index
// is empty and ready to use.
type Index struct {
	entries []Entry
}

// Len returns the number of entries in the index.
func (x *Index) Len() int { return len(x.entries) }

// Entries returns the index's entries, in order. The returned slice
// must not be modified.
func (x *Index) Entries() []Entry { return x.entries }

// Append appends e to the index. Append returns an error of kind
// errors.Precondition if e's range is empty or does not follow the
// last entry's range.
func (x *Index) Append(e Entry) error {
	if e.Start > e.End {
		return errors.E(errors.Precondition, fmt.Sprintf("blockstore: entry range [%d, %d] is empty", e.Start, e.End))
	}
	if n := len(x.entries); n > 0 && x.entries[n-1].End >= e.Start {
		return errors.E(errors.Precondition,
			fmt.Sprintf("blockstore: entry range [%d, %d] overlaps [%d, %d]", e.Start, e.End, x.entries[n-1].Start, x.entries[n-1].End))
	}
	x.entries = append(x.entries, e)
	return nil
}

// Lookup returns the entry whose range contains id, and whether one
// exists.
func (x *Index) Lookup(id int64) (Entry, bool) {
	i := sort.Search(len(x.entries), func(i int) bool {
		return x.entries[i].End >= id
	})
	if i < len(x.entries) && x.entries[i].Contains(id) {
		return x.entries[i], true
	}
	return Entry{}, false
}

// WriteTo writes the encoded index to w.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	p := make([]byte, indexHeaderSize+len(x.entries)*indexEntrySize+indexTrailerSize)
	copy(p, indexMagic)
	order.PutUint32(p[4:], indexVersion)
	order.PutUint32(p[8:], uint32(len(x.entries)))
	off := indexHeaderSize
	for _, e := range x.entries {
		order.PutUint64(p[off:], uint64(e.Start))
		order.PutUint64(p[off+8:], uint64(e.End))
		order.PutUint64(p[off+16:], uint64(e.Position))
		off += indexEntrySize
	}
	order.PutUint32(p[off:], crc32.ChecksumIEEE(p[:off]))
	n, err := w.Write(p)
	return int64(n), err
}

// ReadIndex reads an encoded index from r. ReadIndex returns an error
// of kind errors.Integrity if the index is malformed or corrupted.
func ReadIndex(r io.Reader) (*Index, error) {
	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(p) < indexHeaderSize+indexTrailerSize {
		return nil, errors.E(errors.Integrity, "blockstore: index too small")
	}
	if !bytes.Equal(p[:4], []byte(indexMagic)) {
		return nil, errors.E(errors.Integrity, "blockstore: wrong index magic")
	}
	if v := order.Uint32(p[4:]); v != indexVersion {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("blockstore: unsupported index version %d", v))
	}
	n := int(order.Uint32(p[8:]))
	if want := indexHeaderSize + n*indexEntrySize + indexTrailerSize; len(p) != want {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("blockstore: index of %d entries is %d bytes, want %d", n, len(p), want))
	}
	off := len(p) - indexTrailerSize
	if got, want := crc32.ChecksumIEEE(p[:off]), order.Uint32(p[off:]); got != want {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("blockstore: invalid index checksum: expected %x, got %x", want, got))
	}
	x := &Index{entries: make([]Entry, 0, n)}
	for off := indexHeaderSize; off < len(p)-indexTrailerSize; off += indexEntrySize {
		e := Entry{
			Start:    int64(order.Uint64(p[off:])),
			End:      int64(order.Uint64(p[off+8:])),
			Position: int64(order.Uint64(p[off+16:])),
		}
		if err := x.Append(e); err != nil {
			return nil, errors.E(errors.Integrity, err)
		}
	}
	return x, nil
}
