// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package metrics_test

import (
	"sync"
	"testing"

	"github.com/grailbio/pointstore/metrics"
)

func TestScopeEmpty(t *testing.T) {
	var (
		s metrics.Scope
		c = metrics.NewCounter("empty")
	)
	if got, want := c.Value(&s), int64(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(s.Snapshot()), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScopeMerge(t *testing.T) {
	var (
		hits   = metrics.NewCounter("merge.hits")
		misses = metrics.NewCounter("merge.misses")
		shards = make([]metrics.Scope, 4)
		wg     sync.WaitGroup
	)
	for i := range shards {
		wg.Add(1)
		go func(s *metrics.Scope, n int64) {
			defer wg.Done()
			for j := int64(0); j < n; j++ {
				hits.Incr(s, 1)
			}
			misses.Incr(s, n)
		}(&shards[i], int64(i*10))
	}
	wg.Wait()
	var sum metrics.Scope
	for i := range shards {
		sum.Merge(&shards[i])
	}
	sum.Merge(&sum)
	sum.Merge(nil)
	if got, want := hits.Value(&sum), int64(60); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := misses.Value(&sum), int64(60); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	sum.Reset()
	if got, want := hits.Value(&sum), int64(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	// Merging does not modify the source.
	if got, want := hits.Value(&shards[3]), int64(30); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScopeSnapshot(t *testing.T) {
	var (
		scope metrics.Scope
		hits  = metrics.NewCounter("snapshot.hits")
		miss  = metrics.NewCounter("snapshot.misses")
	)
	hits.Incr(&scope, 3)
	miss.Incr(&scope, 1)
	snap := scope.Snapshot()
	if got, want := snap["snapshot.hits"], int64(3); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := snap.String(), "snapshot.hits:3 snapshot.misses:1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
