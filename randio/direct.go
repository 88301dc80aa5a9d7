// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package randio

import "io"

type direct struct {
	primitives
	r    io.ReaderAt
	size int64
	pos  int64
}

// NewDirect returns a Reader that issues one ReadAt on r for every
// read. The reader's Close closes r if it implements io.Closer.
func NewDirect(r io.ReaderAt, size int64) Reader {
	d := &direct{r: r, size: size}
	d.primitives.r = d
	return d
}

func (d *direct) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if d.pos >= d.size {
		return 0, io.EOF
	}
	n, err := d.r.ReadAt(p, d.pos)
	d.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (d *direct) Seek(pos int64) error {
	if err := checkSeek(pos); err != nil {
		return err
	}
	d.pos = pos
	return nil
}

func (d *direct) Pos() int64   { return d.pos }
func (d *direct) Size() int64  { return d.size }
func (d *direct) Close() error { return closeIfCloser(d.r) }
