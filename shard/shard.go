// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package shard partitions a node store across a number of
// independent block stores. Nodes are assigned to shards by hashing
// their ids, so that each shard can be populated and queried by its
// own worker. A block store instance is never shared across
// goroutines: the sharded writer dedicates one goroutine to each
// shard, and the sharded store serializes access to each shard.
package shard

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/traverse"
	"github.com/spaolacci/murmur3"
)

// Path returns the path of shard number shard out of nshard shards
// stored under the given prefix.
func Path(prefix string, shard, nshard int) string {
	return fmt.Sprintf("%s-%04d-of-%04d", prefix, shard, nshard)
}

// Shard returns the shard to which the node with the provided id is
// assigned.
func Shard(id int64, nshard int) int {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return int(murmur3.Sum64(b[:]) % uint64(nshard))
}

// Missing returns the shards, out of nshard shards stored under the
// given prefix, whose data files cannot be found. Lookup errors are
// treated as missing files.
func Missing(ctx context.Context, prefix string, nshard int) []int {
	present := make([]bool, nshard)
	_ = traverse.Limit(10*runtime.NumCPU()).Each(nshard, func(shard int) error {
		_, err := file.Stat(ctx, Path(prefix, shard, nshard))
		present[shard] = err == nil
		return nil
	})
	var missing []int
	for shard, ok := range present {
		if !ok {
			missing = append(missing, shard)
		}
	}
	return missing
}
