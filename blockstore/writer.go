// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
)

// A Writer populates a store. Nodes must be added in strictly
// ascending id order. The store is complete, and may be opened, only
// after a successful call to Close; a Writer that is not closed loses
// its last block and its index.
type Writer struct {
	path  string
	f     *os.File
	w     *bufio.Writer
	block Block
	index Index
	buf   []byte

	off    int64
	last   int64
	nnode  int64
	closed bool
	// err is the first write error. It is returned by every later
	// call.
	err error
}

// Create creates (or truncates) the store with the data file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.E(err, "blockstore: create "+path)
	}
	return &Writer{
		path:  path,
		f:     f,
		w:     bufio.NewWriterSize(f, 16*BlockBytes),
		block: Block{Nodes: make([]Node, 0, BlockSize)},
		buf:   make([]byte, BlockBytes),
		last:  math.MinInt64,
	}, nil
}

// Add adds a node to the store. Add returns an error of kind
// errors.Precondition if n's id does not follow the previously added
// id. Once writing the store fails, Add returns that failure.
func (w *Writer) Add(n Node) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errors.E(errors.Precondition, "blockstore: add to closed writer")
	}
	if w.nnode > 0 && n.ID <= w.last {
		return errors.E(errors.Precondition, fmt.Sprintf("blockstore: node %d added after node %d", n.ID, w.last))
	}
	w.block.Append(n)
	w.last = n.ID
	w.nnode++
	if w.block.Full() {
		w.err = w.flush()
	}
	return w.err
}

// flush writes the current block, if nonempty, at the next block
// offset and indexes it.
func (w *Writer) flush() error {
	if w.block.Len() == 0 {
		return nil
	}
	w.block.Encode(w.buf)
	if _, err := w.w.Write(w.buf); err != nil {
		return errors.E(err, "blockstore: write "+w.path)
	}
	start, end := w.block.Range()
	if err := w.index.Append(Entry{start, end, w.off}); err != nil {
		return err
	}
	w.off += BlockBytes
	w.block.Reset()
	return nil
}

// Close flushes the last (partial) block, closes the data file, and
// writes the store's index. Close must be called on every path,
// including error paths, to release the data file. Close returns the
// first error encountered by the writer, also when called again.
func (w *Writer) Close() (err error) {
	if w.closed {
		return w.err
	}
	w.closed = true
	defer func() {
		w.err = err
	}()
	if err = w.err; err == nil {
		err = w.flush()
	}
	if err == nil {
		if err = w.w.Flush(); err != nil {
			err = errors.E(err, "blockstore: flush "+w.path)
		}
	}
	fileio.CloseAndReport(w.f, &err)
	if err != nil {
		return err
	}
	if err = writeIndex(IndexPath(w.path), &w.index); err != nil {
		return err
	}
	log.Debug.Printf("blockstore: wrote %d nodes in %d blocks to %s", w.nnode, w.index.Len(), w.path)
	return nil
}

func writeIndex(path string, index *Index) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "blockstore: create "+path)
	}
	defer fileio.CloseAndReport(f, &err)
	if _, err = index.WriteTo(f); err != nil {
		return errors.E(err, "blockstore: write "+path)
	}
	return nil
}
