// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shard

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/pointstore/blockstore"
	"github.com/grailbio/pointstore/metrics"
)

type shardStore struct {
	mu    sync.Mutex
	store *blockstore.Store
}

// A Store looks up nodes in a set of sharded block stores. Lookups
// on different shards proceed in parallel; lookups on the same shard
// are serialized. Store is safe for concurrent use.
type Store struct {
	shards []shardStore
}

// Open opens the nshard block stores stored under the provided
// prefix. The options are applied to every shard. Open returns an
// error of kind errors.NotExist if any shard's data file is missing.
func Open(ctx context.Context, prefix string, nshard int, opts ...blockstore.Option) (*Store, error) {
	if nshard <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("shard: invalid shard count %d", nshard))
	}
	if missing := Missing(ctx, prefix, nshard); len(missing) > 0 {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("shard: %s: missing shards %v", prefix, missing))
	}
	stores := make([]*blockstore.Store, nshard)
	err := traverse.Limit(runtime.NumCPU()).Each(nshard, func(shard int) (err error) {
		stores[shard], err = blockstore.Open(Path(prefix, shard, nshard), opts...)
		return
	})
	if err != nil {
		for _, store := range stores {
			if store == nil {
				continue
			}
			if cerr := store.Close(); cerr != nil {
				log.Error.Printf("shard: close %s: %v", prefix, cerr)
			}
		}
		return nil, err
	}
	s := &Store{shards: make([]shardStore, nshard)}
	for i := range stores {
		s.shards[i].store = stores[i]
	}
	log.Debug.Printf("shard: opened %d shards of %s", nshard, prefix)
	return s, nil
}

// NumShard returns the number of shards in the store.
func (s *Store) NumShard() int { return len(s.shards) }

// Find returns the node with the provided id. Find returns an error
// of kind errors.NotExist if the node is not stored.
func (s *Store) Find(id int64) (blockstore.Node, error) {
	shard := &s.shards[Shard(id, len(s.shards))]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.store.Find(id)
}

// Metrics returns the sum of the shards' metrics.
func (s *Store) Metrics() *metrics.Scope {
	sum := new(metrics.Scope)
	for i := range s.shards {
		sum.Merge(s.shards[i].store.Metrics())
	}
	return sum
}

// Close closes every shard, returning the first error encountered.
func (s *Store) Close() error {
	var err error
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		if cerr := shard.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
		shard.mu.Unlock()
	}
	return err
}
