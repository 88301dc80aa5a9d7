// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package randio implements random-access readers of big-endian
// primitives over files. A Reader maintains a current position; each
// typed read decodes a value at that position and advances it by the
// value's size.
//
// Three backends share the Reader interface:
//
//	Direct  every read is a single ReadAt on the underlying file
//	Paged   reads are served from a bounded set of fixed-size pages
//	Mapped  the file is memory-mapped and reads copy from the mapping
//
// Paged readers benefit access patterns with many small scattered
// reads that fall into a small working set of pages; Direct readers
// are preferable when every read touches a different region of a
// large file.
package randio

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pointstore/metrics"
)

var order = binary.BigEndian

// Reader reads big-endian primitives at arbitrary file offsets.
// Readers are not safe for concurrent use.
type Reader interface {
	// Read reads up to len(p) bytes at the current position. Read may
	// return fewer bytes than requested even when more data follow;
	// callers that need len(p) bytes must loop (e.g., io.ReadFull).
	// Read returns io.EOF when the position is at or beyond the end
	// of the file.
	io.Reader
	io.Closer

	// Seek sets the position for the next read.
	Seek(pos int64) error
	// Pos returns the current position.
	Pos() int64
	// Size returns the size of the underlying file.
	Size() int64

	ReadInt16() (int16, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
}

// Backend selects a Reader implementation.
type Backend int

const (
	// Direct readers issue one ReadAt per read.
	Direct Backend = iota
	// Paged readers cache fixed-size pages.
	Paged
	// Mapped readers memory-map the file.
	Mapped
)

func (b Backend) String() string {
	switch b {
	case Direct:
		return "direct"
	case Paged:
		return "paged"
	case Mapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// ParseBackend returns the backend named by s, as returned by
// Backend.String.
func ParseBackend(s string) (Backend, error) {
	for _, b := range []Backend{Direct, Paged, Mapped} {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, errors.E(errors.Invalid, "randio: unknown backend "+s)
}

const (
	// DefaultPageSize is the page size used by paged readers when none
	// is configured.
	DefaultPageSize = 4096
	// DefaultPages is the number of pages retained by paged readers
	// when none is configured.
	DefaultPages = 1024
)

// Config configures the reader returned by Open.
type Config struct {
	Backend Backend
	// PageSize and Pages configure Paged readers. Zero values select
	// DefaultPageSize and DefaultPages.
	PageSize int
	Pages    int
	// Scope receives page hit and miss counts of Paged readers. It may
	// be nil.
	Scope *metrics.Scope
}

// Open opens the named file for reading with the configured backend.
func Open(path string, config Config) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "randio: open "+path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.E(err, "randio: stat "+path)
	}
	switch config.Backend {
	case Direct:
		return NewDirect(f, info.Size()), nil
	case Paged:
		return NewPaged(f, info.Size(), config.PageSize, config.Pages, config.Scope), nil
	case Mapped:
		r, err := newMapped(f, info.Size())
		if err != nil {
			f.Close()
			return nil, errors.E(err, "randio: mmap "+path)
		}
		return r, nil
	default:
		f.Close()
		return nil, errors.E(errors.Invalid, "randio: unknown backend "+config.Backend.String())
	}
}

// primitives implements the typed reads of a Reader in terms of its
// Read method. Typed reads loop over short reads, so they fail only
// at the end of the file.
type primitives struct {
	r   io.Reader
	buf [8]byte
}

func (p *primitives) next(n int) ([]byte, error) {
	b := p.buf[:n]
	if _, err := io.ReadFull(p.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *primitives) ReadInt16() (int16, error) {
	b, err := p.next(2)
	if err != nil {
		return 0, err
	}
	return int16(order.Uint16(b)), nil
}

func (p *primitives) ReadInt32() (int32, error) {
	b, err := p.next(4)
	if err != nil {
		return 0, err
	}
	return int32(order.Uint32(b)), nil
}

func (p *primitives) ReadInt64() (int64, error) {
	b, err := p.next(8)
	if err != nil {
		return 0, err
	}
	return int64(order.Uint64(b)), nil
}

func (p *primitives) ReadFloat32() (float32, error) {
	b, err := p.next(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(order.Uint32(b)), nil
}

func (p *primitives) ReadFloat64() (float64, error) {
	b, err := p.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

func checkSeek(pos int64) error {
	if pos < 0 {
		return errors.E(errors.Invalid, "randio: negative position")
	}
	return nil
}

func closeIfCloser(v interface{}) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
