// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"github.com/grailbio/pointstore/metrics"
	"github.com/grailbio/pointstore/randio"
)

// DefaultCacheSize is the number of blocks cached by a store when no
// CacheSize option is given.
const DefaultCacheSize = 1024

type options struct {
	cacheSize int
	backend   randio.Config
	scope     *metrics.Scope
}

// Option represents a tunable store parameter.
type Option func(*options)

// CacheSize sets the number of blocks the store keeps in its cache.
func CacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// Backend sets the random-access backend used to read the data file.
// The default is randio.Direct: blocks are already cached, and each
// block read covers a whole page.
func Backend(config randio.Config) Option {
	return func(o *options) {
		o.backend = config
	}
}

// Metrics sets the scope in which the store counts cache (and, for
// paged backends, page) hits and misses. By default each store counts
// in a scope of its own.
func Metrics(scope *metrics.Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

func makeOptions(opts []Option) options {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	if o.scope == nil {
		o.scope = new(metrics.Scope)
	}
	if o.backend.Scope == nil {
		o.backend.Scope = o.scope
	}
	return o
}

// IndexPath returns the path of the index file of the store with the
// provided data file path.
func IndexPath(path string) string {
	return path + ".idx"
}
