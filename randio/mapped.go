// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package randio

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/grailbio/base/errors"
)

type mapped struct {
	primitives
	f    *os.File
	data mmap.MMap
	pos  int64
}

// newMapped maps f read-only. Empty files are not mapped; every read
// of them returns io.EOF.
func newMapped(f *os.File, size int64) (*mapped, error) {
	m := &mapped{f: f}
	m.primitives.r = m
	if size == 0 {
		return m, nil
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	m.data = data
	return m, nil
}

func (m *mapped) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *mapped) Seek(pos int64) error {
	if err := checkSeek(pos); err != nil {
		return err
	}
	m.pos = pos
	return nil
}

func (m *mapped) Pos() int64  { return m.pos }
func (m *mapped) Size() int64 { return int64(len(m.data)) }

func (m *mapped) Close() error {
	var err error
	if m.data != nil {
		if err = m.data.Unmap(); err != nil {
			err = errors.E(err, "randio: unmap")
		}
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
