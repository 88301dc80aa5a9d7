// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package waystore

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/paulmach/osm"
)

type blockAddr struct {
	last     int64
	off, len int64
}

// Map is a read-only map of ways backed by an io.ReadSeeker. Maps are
// not safe for concurrent use.
type Map struct {
	r      io.ReadSeeker
	closer io.Closer
	index  []blockAddr
	data   block
}

// New opens the map at the provided io.ReadSeeker.
func New(r io.ReadSeeker) (*Map, error) {
	m := &Map{r: r}
	return m, m.init()
}

// Open opens the map stored in the named file.
func Open(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "waystore: open "+path)
	}
	m, err := New(f)
	if err != nil {
		f.Close()
		return nil, errors.E(err, "waystore: open "+path)
	}
	m.closer = f
	return m, nil
}

func (m *Map) init() error {
	if _, err := m.r.Seek(-mapTrailerSize, io.SeekEnd); err != nil {
		return errors.E(errors.Integrity, err, "waystore: map too small")
	}
	trailer := make([]byte, mapTrailerSize)
	if _, err := io.ReadFull(m.r, trailer); err != nil {
		return err
	}
	if magic := order.Uint64(trailer[16:]); magic != mapTrailerMagic {
		return errors.E(errors.Integrity, "waystore: wrong magic")
	}
	addr := blockAddr{
		off: int64(order.Uint64(trailer)),
		len: int64(order.Uint64(trailer[8:])),
	}
	var index block
	if err := m.readBlock(addr, &index); err != nil {
		return err
	}
	for index.Scan() {
		v := index.Values()
		if len(v) != 2 {
			return errors.E(errors.Integrity, "waystore: corrupt index entry")
		}
		m.index = append(m.index, blockAddr{last: index.ID(), off: v[0], len: v[1]})
	}
	return index.Err()
}

func (m *Map) readBlock(addr blockAddr, b *block) error {
	if addr.len < 0 || addr.off < 0 {
		return errors.E(errors.Integrity, "waystore: invalid block address")
	}
	if b.p != nil && int64(cap(b.p)) >= addr.len {
		b.p = b.p[:addr.len]
	} else {
		b.p = make([]byte, addr.len)
	}
	if _, err := m.r.Seek(addr.off, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(m.r, b.p); err != nil {
		return err
	}
	return b.init()
}

// Len returns the number of blocks in the map.
func (m *Map) Len() int { return len(m.index) }

// Way returns the ids of the nodes referenced by way id. Way returns an
// error of kind errors.NotExist if the map does not contain the way.
func (m *Map) Way(id osm.WayID) ([]osm.NodeID, error) {
	i := sort.Search(len(m.index), func(i int) bool {
		return m.index[i].last >= int64(id)
	})
	if i == len(m.index) {
		return nil, notFound(id)
	}
	if err := m.readBlock(m.index[i], &m.data); err != nil {
		return nil, errors.E(err, fmt.Sprintf("waystore: read block of way %d", id))
	}
	for m.data.Scan() {
		if m.data.ID() < int64(id) {
			continue
		}
		if m.data.ID() > int64(id) {
			break
		}
		nodes := make([]osm.NodeID, len(m.data.Values()))
		for j, v := range m.data.Values() {
			nodes[j] = osm.NodeID(v)
		}
		return nodes, nil
	}
	if err := m.data.Err(); err != nil {
		return nil, err
	}
	return nil, notFound(id)
}

func notFound(id osm.WayID) error {
	return errors.E(errors.NotExist, fmt.Sprintf("waystore: way %d not found", id))
}

// Close closes the map's file, if it was opened by Open.
func (m *Map) Close() error {
	if m.closer == nil {
		return nil
	}
	err := m.closer.Close()
	m.closer = nil
	return err
}
