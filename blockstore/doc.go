// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package blockstore implements a sparse, on-disk store of node
	coordinates keyed by 64-bit node ids. Stores are written once, by a
	Writer, with ids in ascending order; they are then opened read-only
	with Open. Stores never share files or caches, and neither Writers
	nor Stores are safe for concurrent use: callers that need parallel
	population or lookup should partition ids across independent
	stores (see package shard).

	A store comprises a data file and an index file. The data file is
	a sequence of fixed-size blocks, each holding a sorted run of
	nodes:

		block := count record{count} zero{BlockSize-count} reserved
		count:    uint16              // number of records in the block
		record :=
			id:   int64
			lat:  float64
			lon:  float64
		zero:     uint8[24]           // unused record slot
		reserved: uint8[14]           // pads the block to 4096 bytes

	All values are big-endian. Note that records store the latitude
	before the longitude.

	The index file, stored at the data file's path with the suffix
	".idx", maps id ranges to blocks:

		index := magic version count entry{count} crc32
		magic:    uint8[4]            // "PIDX"
		version:  uint32              // 1
		count:    uint32              // number of entries
		entry :=
			start:    int64           // smallest id in the block
			end:      int64           // largest id in the block
			position: int64           // byte offset of the block
		crc32:    uint32              // IEEE crc32 of the preceding bytes

	Index entries are sorted and do not overlap, so that a lookup binary
	searches the index for the block whose range contains the id, and
	then binary searches the block. Blocks are read through a bounded
	cache that evicts the oldest loaded block first.
*/
package blockstore
