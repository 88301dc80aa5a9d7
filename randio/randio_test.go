// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package randio

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pointstore/metrics"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const tailLen = 16

func testContents() []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, int16(-2))
	binary.Write(&b, binary.BigEndian, int32(7))
	binary.Write(&b, binary.BigEndian, int64(-9))
	binary.Write(&b, binary.BigEndian, math.Float32bits(1.5))
	binary.Write(&b, binary.BigEndian, math.Float64bits(-2.25))
	for i := 0; i < tailLen; i++ {
		b.WriteByte(byte(i))
	}
	return b.Bytes()
}

func writeTestFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data")
	if err := ioutil.WriteFile(path, testContents(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testReader(t *testing.T, r Reader) {
	t.Helper()
	size := int64(len(testContents()))
	expect.EQ(t, r.Size(), size)

	i16, err := r.ReadInt16()
	assert.NoError(t, err)
	expect.EQ(t, i16, int16(-2))
	i32, err := r.ReadInt32()
	assert.NoError(t, err)
	expect.EQ(t, i32, int32(7))
	i64, err := r.ReadInt64()
	assert.NoError(t, err)
	expect.EQ(t, i64, int64(-9))
	f32, err := r.ReadFloat32()
	assert.NoError(t, err)
	expect.EQ(t, f32, float32(1.5))
	f64, err := r.ReadFloat64()
	assert.NoError(t, err)
	expect.EQ(t, f64, -2.25)
	expect.EQ(t, r.Pos(), size-tailLen)

	tail := make([]byte, tailLen)
	_, err = io.ReadFull(r, tail)
	assert.NoError(t, err)
	for i := range tail {
		if got, want := tail[i], byte(i); got != want {
			t.Errorf("byte %d: got %v, want %v", i, got, want)
		}
	}

	if _, err := r.ReadInt32(); err != io.EOF {
		t.Errorf("got %v, want EOF", err)
	}
	assert.NoError(t, r.Seek(size-4))
	if _, err := r.ReadInt64(); err != io.ErrUnexpectedEOF {
		t.Errorf("got %v, want unexpected EOF", err)
	}

	// Random access back to the start.
	assert.NoError(t, r.Seek(2))
	i32, err = r.ReadInt32()
	assert.NoError(t, err)
	expect.EQ(t, i32, int32(7))

	err = r.Seek(-1)
	if !errors.Is(errors.Invalid, err) {
		t.Errorf("got %v, want invalid", err)
	}
}

func TestBackends(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "randio")
	defer cleanup()
	path := writeTestFile(t, dir)
	for _, config := range []Config{
		{Backend: Direct},
		{Backend: Paged},
		{Backend: Paged, PageSize: 3, Pages: 2},
		{Backend: Mapped},
	} {
		config := config
		t.Run(config.Backend.String(), func(t *testing.T) {
			r, err := Open(path, config)
			assert.NoError(t, err)
			testReader(t, r)
			assert.NoError(t, r.Close())
		})
	}
}

func TestOpenMissing(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "randio")
	defer cleanup()
	_, err := Open(filepath.Join(dir, "missing"), Config{})
	assert.NotNil(t, err)
}

func TestMappedEmpty(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "randio")
	defer cleanup()
	path := filepath.Join(dir, "empty")
	assert.NoError(t, ioutil.WriteFile(path, nil, 0644))
	r, err := Open(path, Config{Backend: Mapped})
	assert.NoError(t, err)
	defer r.Close()
	if _, err := r.ReadInt16(); err != io.EOF {
		t.Errorf("got %v, want EOF", err)
	}
}

func TestPagedShortRead(t *testing.T) {
	p := testContents()
	r := NewPaged(bytes.NewReader(p), int64(len(p)), 8, 4, nil)
	assert.NoError(t, r.Seek(4))
	buf := make([]byte, 10)
	n, err := r.Read(buf)
	assert.NoError(t, err)
	// The read stops at the end of the first page.
	expect.EQ(t, n, 4)
	expect.EQ(t, buf[:n], p[4:8])
	expect.EQ(t, r.Pos(), int64(8))
	n, err = r.Read(buf)
	assert.NoError(t, err)
	expect.EQ(t, n, 8)
	expect.EQ(t, buf[:n], p[8:16])

	// Typed reads are assembled across pages.
	assert.NoError(t, r.Seek(6))
	i64, err := r.ReadInt64()
	assert.NoError(t, err)
	expect.EQ(t, i64, int64(binary.BigEndian.Uint64(p[6:14])))
}

func TestPagedEviction(t *testing.T) {
	var (
		p     = testContents()
		scope metrics.Scope
		r     = NewPaged(bytes.NewReader(p), int64(len(p)), 8, 2, &scope)
	)
	touch := func(page int64) {
		t.Helper()
		assert.NoError(t, r.Seek(page*8))
		_, err := r.ReadInt16()
		assert.NoError(t, err)
	}
	touch(0)
	touch(1)
	touch(0)
	expect.EQ(t, pageHits.Value(&scope), int64(1))
	expect.EQ(t, pageMisses.Value(&scope), int64(2))
	// Loading page 2 evicts page 0, the oldest loaded page, even though
	// it was read more recently than page 1.
	touch(2)
	touch(1)
	expect.EQ(t, pageHits.Value(&scope), int64(2))
	touch(0)
	expect.EQ(t, pageMisses.Value(&scope), int64(4))
}

func TestPagedLastPage(t *testing.T) {
	var (
		p     = testContents()
		scope metrics.Scope
		r     = NewPaged(bytes.NewReader(p), int64(len(p)), 32, 2, &scope)
	)
	// The final page is shorter than the page size.
	assert.NoError(t, r.Seek(int64(len(p)-1)))
	buf := make([]byte, 4)
	n, err := r.Read(buf)
	assert.NoError(t, err)
	expect.EQ(t, n, 1)
	expect.EQ(t, buf[0], byte(tailLen-1))
	_, err = r.Read(buf)
	expect.EQ(t, err, io.EOF)
}

func TestParseBackend(t *testing.T) {
	for _, b := range []Backend{Direct, Paged, Mapped} {
		got, err := ParseBackend(b.String())
		assert.NoError(t, err)
		expect.EQ(t, got, b)
	}
	_, err := ParseBackend("tape")
	expect.True(t, errors.Is(errors.Invalid, err))
}
