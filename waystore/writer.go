// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package waystore

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/paulmach/osm"
)

const (
	mapTrailerSize = 8 + // index offset
		8 + // index length
		8 // magic

	mapTrailerMagic = 0x5741595354524545

	defaultBlockSize = 1 << 12
)

// A Writer appends ways to a map. Ways must be appended in ascending
// id order.
type Writer struct {
	data, index blockBuffer
	w           io.Writer

	refs    []int64
	last    int64
	nway    int

	blockSize int
	off       int
}

// WriteOption represents a tunable writer parameter.
type WriteOption func(*Writer)

// BlockSize sets the writer's target block size to sz (in bytes).
// Ways cannot straddle blocks, so blocks holding long ways may exceed
// the target size. The default target block size is 4KB.
func BlockSize(sz int) WriteOption {
	return func(w *Writer) {
		w.blockSize = sz
	}
}

// NewWriter returns a new Writer that writes a map to the provided
// io.Writer.
func NewWriter(w io.Writer, opts ...WriteOption) *Writer {
	wr := &Writer{
		w:         w,
		blockSize: defaultBlockSize,
	}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// Append appends the way id with the provided node references. Append
// returns an error of kind errors.Precondition if id does not follow
// the previously appended id.
func (w *Writer) Append(id osm.WayID, nodes []osm.NodeID) error {
	if w.nway > 0 && int64(id) <= w.last {
		return errors.E(errors.Precondition, fmt.Sprintf("waystore: way %d appended after way %d", id, w.last))
	}
	w.refs = w.refs[:0]
	for _, n := range nodes {
		w.refs = append(w.refs, int64(n))
	}
	w.data.Append(int64(id), w.refs)
	w.last = int64(id)
	w.nway++
	if w.data.Len() > w.blockSize {
		return w.Flush()
	}
	return nil
}

// AppendWay appends the way w, referencing the ids of its nodes.
func (w *Writer) AppendWay(way *osm.Way) error {
	return w.Append(way.ID, way.Nodes.NodeIDs())
}

// Flush creates a new block with the current contents. It forces the
// creation of a new block, and overrides the Writer's block size
// parameter. Flush does nothing if no ways were appended since the
// last block.
func (w *Writer) Flush() error {
	if w.data.count == 0 {
		return nil
	}
	w.data.Finish()
	n, err := w.w.Write(w.data.Bytes())
	if err != nil {
		return err
	}
	w.data.Reset()
	w.index.Append(w.last, []int64{int64(w.off), int64(n)})
	w.off += n
	return nil
}

// Close flushes the last block of the writer and writes the map's
// index and trailer. After successful close, the map is ready to be
// opened. Close does not close the underlying io.Writer.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	w.index.Finish()
	n, err := w.w.Write(w.index.Bytes())
	if err != nil {
		return err
	}
	w.index.Reset()
	trailer := make([]byte, mapTrailerSize)
	order.PutUint64(trailer, uint64(w.off))
	order.PutUint64(trailer[8:], uint64(n))
	order.PutUint64(trailer[16:], mapTrailerMagic)
	w.off += n
	_, err = w.w.Write(trailer)
	return err
}
