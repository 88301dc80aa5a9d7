// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dense

import (
	"bufio"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/fileio"
	"github.com/paulmach/orb"
)

// A Writer writes a dense array file. Points must be written in
// non-decreasing id order; the Writer does not check this, and
// out-of-order writes produce an unusable file.
type Writer struct {
	path   string
	prec   Precision
	f      *os.File
	w      *bufio.Writer
	record []byte
	null   []byte
	// last is the last id written, or -1.
	last int64
}

// Create creates (or truncates) the array file at path, to be written
// with the given precision.
func Create(path string, prec Precision) (*Writer, error) {
	if !prec.valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("dense: invalid precision %d", int(prec)))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.E(err, "dense: create "+path)
	}
	w := &Writer{
		path:   path,
		prec:   prec,
		f:      f,
		w:      bufio.NewWriterSize(f, 1<<16),
		record: make([]byte, prec.Stride()),
		null:   make([]byte, prec.Stride()),
		last:   -1,
	}
	putNull(prec, w.null)
	return w, nil
}

// Write writes the point p for id. Every id between the previously
// written id and id is filled with the sentinel record.
func (w *Writer) Write(id int64, p orb.Point) error {
	for gap := w.last + 1; gap < id; gap++ {
		if _, err := w.w.Write(w.null); err != nil {
			return errors.E(err, "dense: write "+w.path)
		}
	}
	putRecord(w.prec, w.record, p)
	if _, err := w.w.Write(w.record); err != nil {
		return errors.E(err, "dense: write "+w.path)
	}
	w.last = id
	return nil
}

// Finish flushes the array and closes its file. The array may be
// opened for reading once Finish returns successfully.
func (w *Writer) Finish() (err error) {
	defer fileio.CloseAndReport(w.f, &err)
	if err = w.w.Flush(); err != nil {
		return errors.E(err, "dense: flush "+w.path)
	}
	return nil
}
