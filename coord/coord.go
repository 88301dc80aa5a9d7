// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package coord quantizes geographic coordinates into bounded integer
// codes of 32 or 16 bits.
//
// For a width with bounds [min, max], the usable code space is
// [min, min+Range] where Range = (max-min)-3: the top three codes are
// reserved. The largest code (Null32 or Null16) marks an absent
// coordinate; the other two reserved codes are unused.
//
// Longitudes are normalized to [0, 1] by (lon+180)/360 and latitudes
// by (lat+90)/180, scaled by Range, rounded to the nearest integer,
// and offset by min. Decoding inverts this mapping; it is lossy, with
// a quantization step of 360/Range degrees of longitude and 180/Range
// degrees of latitude.
package coord

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// Range32 is the number of quantization steps of 32-bit codes.
	Range32 = (math.MaxInt32 - math.MinInt32) - 3
	// Null32 is the 32-bit code of an absent coordinate.
	Null32 int32 = math.MaxInt32

	// Range16 is the number of quantization steps of 16-bit codes.
	Range16 = (math.MaxInt16 - math.MinInt16) - 3
	// Null16 is the 16-bit code of an absent coordinate.
	Null16 int16 = math.MaxInt16
)

// Quantization steps, in degrees.
const (
	Step32Lon = 360.0 / Range32
	Step32Lat = 180.0 / Range32
	Step16Lon = 360.0 / Range16
	Step16Lat = 180.0 / Range16
)

// quantize maps x in [lo, lo+span] onto [0, rng], clamping values
// outside of the interval so that finite inputs never produce a
// reserved code.
func quantize(x, lo, span float64, rng int64) int64 {
	q := int64(math.Floor((x-lo)/span*float64(rng) + 0.5))
	switch {
	case q < 0:
		return 0
	case q > rng:
		return rng
	}
	return q
}

func dequantize(q int64, lo, span float64, rng int64) float64 {
	return float64(q)/float64(rng)*span + lo
}

// EncodeLon32 returns the 32-bit code of the longitude lon.
func EncodeLon32(lon float64) int32 {
	return int32(math.MinInt32 + quantize(lon, -180, 360, Range32))
}

// EncodeLat32 returns the 32-bit code of the latitude lat.
func EncodeLat32(lat float64) int32 {
	return int32(math.MinInt32 + quantize(lat, -90, 180, Range32))
}

// DecodeLon32 returns the longitude of the 32-bit code c.
func DecodeLon32(c int32) float64 {
	return dequantize(int64(c)-math.MinInt32, -180, 360, Range32)
}

// DecodeLat32 returns the latitude of the 32-bit code c.
func DecodeLat32(c int32) float64 {
	return dequantize(int64(c)-math.MinInt32, -90, 180, Range32)
}

// EncodeLon16 returns the 16-bit code of the longitude lon.
func EncodeLon16(lon float64) int16 {
	return int16(math.MinInt16 + quantize(lon, -180, 360, Range16))
}

// EncodeLat16 returns the 16-bit code of the latitude lat.
func EncodeLat16(lat float64) int16 {
	return int16(math.MinInt16 + quantize(lat, -90, 180, Range16))
}

// DecodeLon16 returns the longitude of the 16-bit code c.
func DecodeLon16(c int16) float64 {
	return dequantize(int64(c)-math.MinInt16, -180, 360, Range16)
}

// DecodeLat16 returns the latitude of the 16-bit code c.
func DecodeLat16(c int16) float64 {
	return dequantize(int64(c)-math.MinInt16, -90, 180, Range16)
}

// Encode32 returns the 32-bit longitude and latitude codes of p.
func Encode32(p orb.Point) (lon, lat int32) {
	return EncodeLon32(p.Lon()), EncodeLat32(p.Lat())
}

// Decode32 returns the point of the 32-bit codes lon and lat.
func Decode32(lon, lat int32) orb.Point {
	return orb.Point{DecodeLon32(lon), DecodeLat32(lat)}
}

// Encode16 returns the 16-bit longitude and latitude codes of p.
func Encode16(p orb.Point) (lon, lat int16) {
	return EncodeLon16(p.Lon()), EncodeLat16(p.Lat())
}

// Decode16 returns the point of the 16-bit codes lon and lat.
func Decode16(lon, lat int16) orb.Point {
	return orb.Point{DecodeLon16(lon), DecodeLat16(lat)}
}
