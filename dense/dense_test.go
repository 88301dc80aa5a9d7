// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dense

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/pointstore/coord"
	"github.com/grailbio/pointstore/randio"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/paulmach/orb"
)

var precisions = []Precision{Double, Float, Int, Short}

// tolerance returns the largest expected decoding error of prec.
func tolerance(prec Precision) (lon, lat float64) {
	switch prec {
	case Double:
		return 0, 0
	case Float:
		return 1e-4, 1e-4
	case Int:
		return coord.Step32Lon, coord.Step32Lat
	default:
		return coord.Step16Lon, coord.Step16Lat
	}
}

func writeArray(t *testing.T, path string, prec Precision, ids []int64, points []orb.Point) {
	t.Helper()
	w, err := Create(path, prec)
	assert.NoError(t, err)
	for i := range ids {
		assert.NoError(t, w.Write(ids[i], points[i]))
	}
	assert.NoError(t, w.Finish())
}

func TestGapFill(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "dense")
	defer cleanup()
	ids := []int64{0, 1, 5}
	points := []orb.Point{{1, 2}, {-3, 4}, {5, -6}}
	for _, prec := range precisions {
		t.Run(prec.String(), func(t *testing.T) {
			path := filepath.Join(dir, prec.String())
			writeArray(t, path, prec, ids, points)
			info, err := os.Stat(path)
			assert.NoError(t, err)
			expect.EQ(t, info.Size(), 6*prec.Stride())

			a, err := Open(path, prec)
			assert.NoError(t, err)
			defer a.Close()
			expect.EQ(t, a.Len(), int64(6))
			expect.EQ(t, a.Precision(), prec)

			dlon, dlat := tolerance(prec)
			for i, id := range ids {
				p, err := a.Get(id)
				assert.NoError(t, err)
				if d := math.Abs(p.Lon() - points[i].Lon()); d > dlon {
					t.Errorf("id %d: longitude off by %v", id, d)
				}
				if d := math.Abs(p.Lat() - points[i].Lat()); d > dlat {
					t.Errorf("id %d: latitude off by %v", id, d)
				}
				ok, err := a.Contains(id)
				assert.NoError(t, err)
				expect.True(t, ok)
			}
			for id := int64(2); id < 5; id++ {
				_, err := a.Get(id)
				expect.True(t, errors.Is(errors.NotExist, err), "id", id, err)
				ok, err := a.Contains(id)
				assert.NoError(t, err)
				// Int arrays report every id as contained.
				expect.EQ(t, ok, prec == Int)
			}
			_, err = a.Get(6)
			expect.True(t, errors.Is(errors.NotExist, err))
			_, err = a.Get(1000)
			expect.True(t, errors.Is(errors.NotExist, err))
			ok, err := a.Contains(1000)
			assert.NoError(t, err)
			expect.EQ(t, ok, prec == Int)
			// The offset of this id overflows int64 and must not wrap
			// around to a written record.
			const huge = int64(1) << 60
			_, err = a.Get(huge)
			expect.True(t, errors.Is(errors.NotExist, err), err)
			ok, err = a.Contains(huge)
			assert.NoError(t, err)
			expect.EQ(t, ok, prec == Int)
		})
	}
}

func TestStrictContains(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "dense")
	defer cleanup()
	path := filepath.Join(dir, "int")
	writeArray(t, path, Int, []int64{0, 3}, []orb.Point{{1, 1}, {2, 2}})
	a, err := Open(path, Int, StrictContains())
	assert.NoError(t, err)
	defer a.Close()
	for id, want := range []bool{true, false, false, true, false} {
		ok, err := a.Contains(int64(id))
		assert.NoError(t, err)
		expect.EQ(t, ok, want, "id", id)
	}
}

func TestSentinelBits(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "dense")
	defer cleanup()
	path := filepath.Join(dir, "double")
	writeArray(t, path, Double, []int64{1}, []orb.Point{{7, 8}})
	r, err := randio.Open(path, randio.Config{})
	assert.NoError(t, err)
	defer r.Close()
	for i := 0; i < 2; i++ {
		v, err := r.ReadInt64()
		assert.NoError(t, err)
		expect.EQ(t, v, int64(math.MaxInt64))
	}
	path = filepath.Join(dir, "float")
	writeArray(t, path, Float, []int64{1}, []orb.Point{{7, 8}})
	r, err = randio.Open(path, randio.Config{})
	assert.NoError(t, err)
	defer r.Close()
	for i := 0; i < 2; i++ {
		v, err := r.ReadInt32()
		assert.NoError(t, err)
		expect.EQ(t, v, int32(math.MaxInt32))
	}
}

func TestShortPrecisionSingleNode(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "dense")
	defer cleanup()
	path := filepath.Join(dir, "short")
	writeArray(t, path, Short, []int64{0}, []orb.Point{{13.0, 52.0}})
	a, err := Open(path, Short)
	assert.NoError(t, err)
	defer a.Close()
	p, err := a.Get(0)
	assert.NoError(t, err)
	if d := math.Abs(p.Lon() - 13); d > 0.0055 {
		t.Errorf("longitude off by %v", d)
	}
	if d := math.Abs(p.Lat() - 52); d > 0.0055 {
		t.Errorf("latitude off by %v", d)
	}
}

func TestBackends(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "dense")
	defer cleanup()
	const N = 2000
	var (
		fz     = fuzz.NewWithSeed(7)
		ids    []int64
		points []orb.Point
		id     int64
	)
	for i := 0; i < N; i++ {
		var skip uint8
		fz.Fuzz(&skip)
		id += int64(skip%4) + 1
		ids = append(ids, id)
		points = append(points, orb.Point{float64(i%360) - 180, float64(i%180) - 90})
	}
	path := filepath.Join(dir, "double")
	writeArray(t, path, Double, ids, points)
	for _, config := range []randio.Config{
		{Backend: randio.Direct},
		{Backend: randio.Paged, PageSize: 64, Pages: 8},
		{Backend: randio.Mapped},
	} {
		a, err := Open(path, Double, Backend(config))
		assert.NoError(t, err)
		for i := len(ids) - 1; i >= 0; i-- {
			p, err := a.Get(ids[i])
			assert.NoError(t, err)
			expect.EQ(t, p, points[i])
		}
		assert.NoError(t, a.Close())
	}
}

func TestInvalidPrecision(t *testing.T) {
	_, err := Create(filepath.Join(os.TempDir(), "never"), Precision(9))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Open("never", Precision(-1))
	expect.True(t, errors.Is(errors.Invalid, err))
}
