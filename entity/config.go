// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package entity

import (
	"context"
	"io"

	"github.com/grailbio/base/config"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pointstore/blockstore"
	"github.com/grailbio/pointstore/randio"
	"github.com/grailbio/pointstore/shard"
	"github.com/grailbio/pointstore/waystore"
)

func init() {
	config.Register("pointstore", func(inst *config.Constructor) {
		var (
			nodes, ways, backend string
			nshard, cacheSize    int
			legacy               bool
		)
		inst.StringVar(&nodes, "nodes", "", "path of the node block store, or the prefix of its shards")
		inst.IntVar(&nshard, "shards", 0, "number of node store shards; 0 if the store is not sharded")
		inst.StringVar(&ways, "ways", "", "path of the way store; ways are not provided if empty")
		inst.IntVar(&cacheSize, "cache-size", blockstore.DefaultCacheSize, "number of blocks cached by each node store")
		inst.StringVar(&backend, "backend", randio.Direct.String(), "file access backend: direct, paged, or mapped")
		inst.BoolVar(&legacy, "legacy-not-found", false, "report every lookup failure as a missing entity")
		inst.Doc = "pointstore configures an entity provider backed by point stores"
		// The provider's sources are owned by the provider; callers
		// release them with StoreProvider.Close.
		inst.New = func() (interface{}, error) {
			if nodes == "" {
				return nil, errors.E(errors.Invalid, "pointstore: no node store configured")
			}
			b, err := randio.ParseBackend(backend)
			if err != nil {
				return nil, err
			}
			opts := []blockstore.Option{
				blockstore.CacheSize(cacheSize),
				blockstore.Backend(randio.Config{Backend: b}),
			}
			var nodeSource NodeSource
			if nshard > 0 {
				nodeSource, err = shard.Open(context.Background(), nodes, nshard, opts...)
			} else {
				nodeSource, err = blockstore.Open(nodes, opts...)
			}
			if err != nil {
				return nil, err
			}
			var popts []Option
			if legacy {
				popts = append(popts, LegacyNotFound())
			}
			if ways == "" {
				return NewProvider(nodeSource, nil, popts...), nil
			}
			m, err := waystore.Open(ways)
			if err != nil {
				if cerr := nodeSource.(io.Closer).Close(); cerr != nil {
					log.Error.Printf("pointstore: close %s: %v", nodes, cerr)
				}
				return nil, err
			}
			return NewProvider(nodeSource, m, popts...), nil
		}
	})
}
