// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package randio

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pointstore/metrics"
)

var (
	pageHits   = metrics.NewCounter("randio.page.hits")
	pageMisses = metrics.NewCounter("randio.page.misses")
)

// paged serves reads from fixed-size pages. Pages are evicted in the
// order they were loaded, regardless of how recently they were read.
type paged struct {
	primitives
	r        io.ReaderAt
	size     int64
	pos      int64
	pageSize int64
	capacity int

	pages map[int64][]byte
	// loaded holds page numbers in load order; loaded[0] is evicted
	// first.
	loaded []int64
	scope  *metrics.Scope
}

// NewPaged returns a Reader that caches up to pages pages of pageSize
// bytes read from r. Nonpositive values select DefaultPageSize and
// DefaultPages. Page hits and misses are counted in scope, which may
// be nil. The reader's Close closes r if it implements io.Closer.
func NewPaged(r io.ReaderAt, size int64, pageSize, pages int, scope *metrics.Scope) Reader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pages <= 0 {
		pages = DefaultPages
	}
	p := &paged{
		r:        r,
		size:     size,
		pageSize: int64(pageSize),
		capacity: pages,
		pages:    make(map[int64][]byte),
		scope:    scope,
	}
	p.primitives.r = p
	return p
}

// page returns page number n, reading it on a miss.
func (p *paged) page(n int64) ([]byte, error) {
	if b, ok := p.pages[n]; ok {
		pageHits.Incr(p.scope, 1)
		return b, nil
	}
	pageMisses.Incr(p.scope, 1)
	off := n * p.pageSize
	sz := p.pageSize
	if rem := p.size - off; rem < sz {
		sz = rem
	}
	b := make([]byte, sz)
	m, err := p.r.ReadAt(b, off)
	if err == io.EOF && int64(m) == sz {
		err = nil
	}
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("randio: read page %d", n))
	}
	p.pages[n] = b
	p.loaded = append(p.loaded, n)
	if len(p.pages) > p.capacity {
		delete(p.pages, p.loaded[0])
		p.loaded = p.loaded[1:]
	}
	return b, nil
}

// Read serves bytes from the page containing the current position
// only. If the request extends past the end of that page, Read
// returns a short count; the next call continues on the following
// page.
func (p *paged) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if p.pos >= p.size {
		return 0, io.EOF
	}
	n := p.pos / p.pageSize
	page, err := p.page(n)
	if err != nil {
		return 0, err
	}
	m := copy(b, page[p.pos-n*p.pageSize:])
	p.pos += int64(m)
	return m, nil
}

func (p *paged) Seek(pos int64) error {
	if err := checkSeek(pos); err != nil {
		return err
	}
	p.pos = pos
	return nil
}

func (p *paged) Pos() int64  { return p.pos }
func (p *paged) Size() int64 { return p.size }

func (p *paged) Close() error {
	p.pages = nil
	p.loaded = nil
	return closeIfCloser(p.r)
}
