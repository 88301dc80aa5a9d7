// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dense

import (
	"math"

	"github.com/grailbio/pointstore/coord"
	"github.com/paulmach/orb"
)

type doubleArray struct{ array }

func (a *doubleArray) Get(id int64) (orb.Point, error) {
	if err := a.seek(id); err != nil {
		return orb.Point{}, err
	}
	lon, err := a.r.ReadFloat64()
	if err != nil {
		return orb.Point{}, a.readError(id, err)
	}
	lat, err := a.r.ReadFloat64()
	if err != nil {
		return orb.Point{}, a.readError(id, err)
	}
	if math.Float64bits(lon) == doubleNull && math.Float64bits(lat) == doubleNull {
		return orb.Point{}, a.notFound(id)
	}
	return orb.Point{lon, lat}, nil
}

// Contains reinterprets the record's slots as int64s and compares
// them with the sentinel bits.
func (a *doubleArray) Contains(id int64) (bool, error) {
	if err := a.seek(id); err != nil {
		return false, ignoreNotFound(err)
	}
	lon, err := a.r.ReadInt64()
	if err != nil {
		return false, ignoreNotFound(a.readError(id, err))
	}
	lat, err := a.r.ReadInt64()
	if err != nil {
		return false, ignoreNotFound(a.readError(id, err))
	}
	return lon != doubleNull || lat != doubleNull, nil
}

type floatArray struct{ array }

func (a *floatArray) Get(id int64) (orb.Point, error) {
	if err := a.seek(id); err != nil {
		return orb.Point{}, err
	}
	lon, err := a.r.ReadFloat32()
	if err != nil {
		return orb.Point{}, a.readError(id, err)
	}
	lat, err := a.r.ReadFloat32()
	if err != nil {
		return orb.Point{}, a.readError(id, err)
	}
	if math.Float32bits(lon) == floatNull && math.Float32bits(lat) == floatNull {
		return orb.Point{}, a.notFound(id)
	}
	return orb.Point{float64(lon), float64(lat)}, nil
}

// Contains reinterprets the record's slots as int32s and compares
// them with the sentinel bits.
func (a *floatArray) Contains(id int64) (bool, error) {
	if err := a.seek(id); err != nil {
		return false, ignoreNotFound(err)
	}
	lon, err := a.r.ReadInt32()
	if err != nil {
		return false, ignoreNotFound(a.readError(id, err))
	}
	lat, err := a.r.ReadInt32()
	if err != nil {
		return false, ignoreNotFound(a.readError(id, err))
	}
	return lon != floatNull || lat != floatNull, nil
}

type intArray struct {
	array
	strict bool
}

func (a *intArray) codes(id int64) (lon, lat int32, err error) {
	if err = a.seek(id); err != nil {
		return
	}
	if lon, err = a.r.ReadInt32(); err != nil {
		err = a.readError(id, err)
		return
	}
	if lat, err = a.r.ReadInt32(); err != nil {
		err = a.readError(id, err)
	}
	return
}

func (a *intArray) Get(id int64) (orb.Point, error) {
	lon, lat, err := a.codes(id)
	if err != nil {
		return orb.Point{}, err
	}
	if lon == coord.Null32 || lat == coord.Null32 {
		return orb.Point{}, a.notFound(id)
	}
	return coord.Decode32(lon, lat), nil
}

// Contains always returns true unless the array was opened with
// StrictContains.
func (a *intArray) Contains(id int64) (bool, error) {
	if !a.strict {
		return true, nil
	}
	lon, lat, err := a.codes(id)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	return lon != coord.Null32 && lat != coord.Null32, nil
}

type shortArray struct{ array }

func (a *shortArray) codes(id int64) (lon, lat int16, err error) {
	if err = a.seek(id); err != nil {
		return
	}
	if lon, err = a.r.ReadInt16(); err != nil {
		err = a.readError(id, err)
		return
	}
	if lat, err = a.r.ReadInt16(); err != nil {
		err = a.readError(id, err)
	}
	return
}

func (a *shortArray) Get(id int64) (orb.Point, error) {
	lon, lat, err := a.codes(id)
	if err != nil {
		return orb.Point{}, err
	}
	if lon == coord.Null16 || lat == coord.Null16 {
		return orb.Point{}, a.notFound(id)
	}
	return coord.Decode16(lon, lat), nil
}

func (a *shortArray) Contains(id int64) (bool, error) {
	lon, lat, err := a.codes(id)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	return lon != coord.Null16 && lat != coord.Null16, nil
}
