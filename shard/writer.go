// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shard

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pointstore/blockstore"
	"golang.org/x/sync/errgroup"
)

const queueSize = 1024

// A Writer populates nshard block stores. Each shard is written by
// its own goroutine, fed through a channel. Nodes must be added in
// ascending id order; the order is preserved within each shard.
type Writer struct {
	prefix  string
	writers []*blockstore.Writer
	queues  []chan blockstore.Node
	counts  []int

	g   *errgroup.Group
	ctx context.Context

	closed bool
}

// Create creates nshard block stores under the provided prefix and
// returns a writer that distributes nodes across them. Writing is
// aborted when ctx is done.
func Create(ctx context.Context, prefix string, nshard int) (*Writer, error) {
	if nshard <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("shard: invalid shard count %d", nshard))
	}
	w := &Writer{
		prefix:  prefix,
		writers: make([]*blockstore.Writer, nshard),
		queues:  make([]chan blockstore.Node, nshard),
		counts:  make([]int, nshard),
	}
	for i := range w.writers {
		bw, err := blockstore.Create(Path(prefix, i, nshard))
		if err != nil {
			w.remove(i)
			return nil, err
		}
		w.writers[i] = bw
	}
	w.g, w.ctx = errgroup.WithContext(ctx)
	for i := range w.queues {
		var (
			queue = make(chan blockstore.Node, queueSize)
			bw    = w.writers[i]
		)
		w.queues[i] = queue
		w.g.Go(func() error {
			for n := range queue {
				if err := bw.Add(n); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return w, nil
}

// remove closes and deletes the first n shards, so that a failed
// Create leaves no partial prefix behind.
func (w *Writer) remove(n int) {
	for i, bw := range w.writers[:n] {
		path := Path(w.prefix, i, len(w.writers))
		if err := bw.Close(); err != nil {
			log.Error.Printf("shard: close %s: %v", path, err)
		}
		for _, p := range []string{path, blockstore.IndexPath(path)} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Error.Printf("shard: remove %s: %v", p, err)
			}
		}
	}
}

// Add routes the node n to its shard. Add fails if a shard writer
// has failed or if the writer's context is done.
func (w *Writer) Add(n blockstore.Node) error {
	if w.closed {
		return errors.E(errors.Precondition, "shard: add to closed writer")
	}
	shard := Shard(n.ID, len(w.queues))
	select {
	case w.queues[shard] <- n:
		w.counts[shard]++
		return nil
	case <-w.ctx.Done():
		return errors.E(errors.Canceled, "shard: writer aborted", w.ctx.Err())
	}
}

// Close waits for all shard goroutines to drain their queues and then
// closes every shard's block store, persisting the partial blocks and
// the indices. Close returns the first error encountered.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	for _, queue := range w.queues {
		close(queue)
	}
	err := w.g.Wait()
	for i, bw := range w.writers {
		if cerr := bw.Close(); cerr != nil && err == nil {
			err = cerr
		}
		log.Debug.Printf("shard: %s: wrote %d nodes", Path(w.prefix, i, len(w.writers)), w.counts[i])
	}
	return err
}
