// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dense

import (
	"encoding/binary"
	"math"

	"github.com/grailbio/pointstore/coord"
	"github.com/paulmach/orb"
)

var order = binary.BigEndian

// Sentinel bit patterns of the floating-point precisions. They are
// written as raw integers and recognized by reading the record back
// as integers; as floating-point values they are NaNs.
const (
	doubleNull = math.MaxInt64
	floatNull  = math.MaxInt32
)

// putRecord encodes p into the record b of precision prec.
func putRecord(prec Precision, b []byte, p orb.Point) {
	switch prec {
	case Double:
		order.PutUint64(b, math.Float64bits(p.Lon()))
		order.PutUint64(b[8:], math.Float64bits(p.Lat()))
	case Float:
		order.PutUint32(b, math.Float32bits(float32(p.Lon())))
		order.PutUint32(b[4:], math.Float32bits(float32(p.Lat())))
	case Int:
		lon, lat := coord.Encode32(p)
		order.PutUint32(b, uint32(lon))
		order.PutUint32(b[4:], uint32(lat))
	case Short:
		lon, lat := coord.Encode16(p)
		order.PutUint16(b, uint16(lon))
		order.PutUint16(b[2:], uint16(lat))
	}
}

// putNull writes the sentinel record of precision prec into b.
func putNull(prec Precision, b []byte) {
	switch prec {
	case Double:
		order.PutUint64(b, doubleNull)
		order.PutUint64(b[8:], doubleNull)
	case Float:
		order.PutUint32(b, floatNull)
		order.PutUint32(b[4:], floatNull)
	case Int:
		order.PutUint32(b, uint32(coord.Null32))
		order.PutUint32(b[4:], uint32(coord.Null32))
	case Short:
		order.PutUint16(b, uint16(coord.Null16))
		order.PutUint16(b[2:], uint16(coord.Null16))
	}
}
