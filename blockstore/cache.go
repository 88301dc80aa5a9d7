// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"github.com/grailbio/base/must"
	"github.com/grailbio/pointstore/metrics"
)

var (
	cacheHits   = metrics.NewCounter("blockstore.cache.hits")
	cacheMisses = metrics.NewCounter("blockstore.cache.misses")
)

// A BlockProvider reads the block at a byte position.
type BlockProvider interface {
	ReadBlock(pos int64) (*Block, error)
}

// Cache is a bounded cache of blocks in front of a BlockProvider. When
// full, the cache evicts the block that was inserted first, regardless
// of how recently it was requested. Caches are not safe for concurrent
// use.
type Cache struct {
	provider BlockProvider
	capacity int
	blocks   map[int64]*Block
	// inserted holds block positions in insertion order.
	inserted []int64
	scope    *metrics.Scope
}

// NewCache returns a cache of at most capacity blocks read from
// provider. Hits and misses are counted in scope; if scope is nil the
// cache counts in a scope of its own.
func NewCache(provider BlockProvider, capacity int, scope *metrics.Scope) *Cache {
	must.Truef(capacity > 0, "blockstore: cache capacity %d", capacity)
	if scope == nil {
		scope = new(metrics.Scope)
	}
	return &Cache{
		provider: provider,
		capacity: capacity,
		blocks:   make(map[int64]*Block),
		scope:    scope,
	}
}

// Get returns the block at pos, reading it from the provider if it is
// not cached. Errors from the provider are returned unchanged and
// nothing is cached.
func (c *Cache) Get(pos int64) (*Block, error) {
	if b, ok := c.blocks[pos]; ok {
		cacheHits.Incr(c.scope, 1)
		return b, nil
	}
	cacheMisses.Incr(c.scope, 1)
	b, err := c.provider.ReadBlock(pos)
	if err != nil {
		return nil, err
	}
	c.blocks[pos] = b
	c.inserted = append(c.inserted, pos)
	if len(c.blocks) > c.capacity {
		delete(c.blocks, c.inserted[0])
		c.inserted = c.inserted[1:]
	}
	return b, nil
}

// Len returns the number of cached blocks.
func (c *Cache) Len() int { return len(c.blocks) }

// Hits returns the number of requests served from the cache's scope.
func (c *Cache) Hits() int64 { return cacheHits.Value(c.scope) }

// Misses returns the number of requests that were read from the
// provider, as counted in the cache's scope.
func (c *Cache) Misses() int64 { return cacheMisses.Value(c.scope) }
