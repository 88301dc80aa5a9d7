// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package waystore implements a read-only, sorted, on-disk map from
	way ids to the ids of the nodes they reference. Ways are
	variable-length records, so unlike package blockstore, blocks vary
	in size and are located through an index block. Maps are produced
	by a Writer, which expects way ids in ascending order.

	A map is a sequence of data blocks, followed by an index block,
	followed by a trailer. Each block comprises a sequence of entries
	followed by a block trailer:

		block := blockEntry* blockTrailer
		blockEntry :=
			id:    varint            // way id, minus the previous id in the block
			nref:  uvarint           // number of node references
			refs:  varint[nref]      // node ids, each minus the previous
		blockTrailer :=
			count: uint32            // number of entries in the block
			type:  uint8             // block type (0; reserved for future use)
			crc32: uint32            // IEEE crc32 of contents and trailer

	The first entry of a block, and the first reference of an entry,
	are stored relative to zero. The index block has the same layout;
	it holds one entry for each data block, whose id is the last way id
	in the block and whose two references are the block's offset and
	length. This arrangement allows the reader to binary search the
	index and then scan a single block.

	The map trailer is:

		mapTrailer :=
			off:   uint64            // offset of the index block
			len:   uint64            // length of the index block
			magic: uint64            // 0x5741595354524545

	Fixed-width integers are big-endian.
*/
package waystore
