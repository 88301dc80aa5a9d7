// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pointstore/metrics"
	"github.com/grailbio/pointstore/randio"
)

// Store is a read handle on a store produced by a Writer. Stores are
// not safe for concurrent use.
type Store struct {
	path  string
	r     randio.Reader
	index *Index
	cache *Cache
	scope *metrics.Scope
	buf   []byte
}

// Open opens the store with the data file at path.
//
// A missing or unreadable index file is not an error: the store is
// opened with an empty index and reports every id as absent. This
// permits opening shards that were never populated. The data file
// must exist whenever the index is nonempty.
func Open(path string, opts ...Option) (*Store, error) {
	o := makeOptions(opts)
	s := &Store{
		path:  path,
		index: readIndexFile(IndexPath(path)),
		scope: o.scope,
		buf:   make([]byte, BlockBytes),
	}
	s.cache = NewCache(s, o.cacheSize, o.scope)
	if s.index.Len() == 0 {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return s, nil
		}
	}
	r, err := randio.Open(path, o.backend)
	if err != nil {
		return nil, err
	}
	s.r = r
	return s, nil
}

func readIndexFile(path string) *Index {
	index, err := func() (index *Index, err error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fileio.CloseAndReport(f, &err)
		return ReadIndex(f)
	}()
	if err != nil {
		log.Printf("blockstore: %s: using empty index: %v", path, err)
		return new(Index)
	}
	return index
}

// ReadBlock reads the block at byte position pos of the data file. It
// implements BlockProvider; lookups read blocks through the store's
// cache instead.
func (s *Store) ReadBlock(pos int64) (*Block, error) {
	if s.r == nil {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("blockstore: %s has no data", s.path))
	}
	if err := s.r.Seek(pos); err != nil {
		return nil, err
	}
	// Paged readers return short reads at page boundaries.
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = errors.E(errors.Integrity, err)
		}
		return nil, errors.E(err, fmt.Sprintf("blockstore: read block at %d of %s", pos, s.path))
	}
	b := new(Block)
	if err := b.UnmarshalBinary(s.buf); err != nil {
		return nil, errors.E(err, fmt.Sprintf("blockstore: block at %d of %s", pos, s.path))
	}
	return b, nil
}

// Find returns the node with the provided id. Find returns an error of
// kind errors.NotExist if the store does not contain the node; other
// errors indicate that the store could not be read.
func (s *Store) Find(id int64) (Node, error) {
	e, ok := s.index.Lookup(id)
	if !ok {
		return Node{}, s.notFound(id)
	}
	b, err := s.cache.Get(e.Position)
	if err != nil {
		return Node{}, err
	}
	n, ok := b.Find(id)
	if !ok {
		return Node{}, s.notFound(id)
	}
	return n, nil
}

func (s *Store) notFound(id int64) error {
	return errors.E(errors.NotExist, fmt.Sprintf("blockstore: node %d not in %s", id, s.path))
}

// Scan calls fn for each node in the store, in id order, until fn
// returns an error. Scan reads blocks directly, bypassing the cache.
func (s *Store) Scan(fn func(Node) error) error {
	for _, e := range s.index.Entries() {
		b, err := s.ReadBlock(e.Position)
		if err != nil {
			return err
		}
		for _, n := range b.Nodes {
			if err := fn(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Index returns the store's index.
func (s *Store) Index() *Index { return s.index }

// Cache returns the store's block cache.
func (s *Store) Cache() *Cache { return s.cache }

// Metrics returns the scope in which the store counts cache and page
// hits and misses.
func (s *Store) Metrics() *metrics.Scope { return s.scope }

// Close releases the store's data file.
func (s *Store) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}
