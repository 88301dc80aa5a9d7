// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blockstore

import (
	"math"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestBlockConstants(t *testing.T) {
	expect.EQ(t, BlockSize, 170)
	expect.True(t, countSize+BlockSize*RecordSize <= BlockBytes)
}

func TestBlockLayout(t *testing.T) {
	var b Block
	b.Append(Node{ID: 42, Lon: 13.25, Lat: 52.5})
	p, err := b.MarshalBinary()
	assert.NoError(t, err)
	expect.EQ(t, len(p), BlockBytes)
	expect.EQ(t, order.Uint16(p), uint16(1))
	expect.EQ(t, int64(order.Uint64(p[2:])), int64(42))
	// Latitude precedes longitude.
	expect.EQ(t, math.Float64frombits(order.Uint64(p[10:])), 52.5)
	expect.EQ(t, math.Float64frombits(order.Uint64(p[18:])), 13.25)
	for i := 2 + RecordSize; i < len(p); i++ {
		if p[i] != 0 {
			t.Fatalf("byte %d: got %v, want 0", i, p[i])
		}
	}
}

func TestBlockRoundTrip(t *testing.T) {
	var b Block
	for i := 0; i < BlockSize; i++ {
		b.Append(Node{ID: int64(i * 3), Lon: float64(i) / 7, Lat: -float64(i) / 11})
	}
	expect.True(t, b.Full())
	p, err := b.MarshalBinary()
	assert.NoError(t, err)
	expect.EQ(t, len(p), BlockBytes)

	var c Block
	assert.NoError(t, c.UnmarshalBinary(p))
	expect.EQ(t, c.Nodes, b.Nodes)
	for i := 0; i < BlockSize*3; i++ {
		n, ok := c.Find(int64(i))
		expect.EQ(t, ok, i%3 == 0, i)
		if ok {
			expect.EQ(t, n, b.Nodes[i/3])
		}
	}
	start, end := c.Range()
	expect.EQ(t, start, int64(0))
	expect.EQ(t, end, int64((BlockSize-1)*3))
}

func TestBlockCorrupt(t *testing.T) {
	var b Block
	err := b.UnmarshalBinary(make([]byte, 100))
	expect.True(t, errors.Is(errors.Integrity, err))
	p := make([]byte, BlockBytes)
	order.PutUint16(p, BlockSize+1)
	err = b.UnmarshalBinary(p)
	expect.True(t, errors.Is(errors.Integrity, err))
}

func TestBlockAppendFull(t *testing.T) {
	var b Block
	for i := 0; i < BlockSize; i++ {
		b.Append(Node{ID: int64(i)})
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	b.Append(Node{ID: BlockSize})
}
