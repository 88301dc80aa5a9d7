// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package dense implements direct-addressed coordinate arrays. The
	point of node id is stored in a fixed-size record at byte offset
	id*stride, so that lookups need no search. Dense arrays suit id sets
	that are small or contiguous; sparse id sets are better served by
	package blockstore.

	An array file is a headerless sequence of big-endian records from
	id 0 upward; its length divided by the stride bounds the ids it
	holds. Each precision uses its own record layout:

		Double (16 bytes): lon float64, lat float64
		Float  (8 bytes):  lon float32, lat float32
		Int    (8 bytes):  lon int32,   lat int32   (coord 32-bit codes)
		Short  (4 bytes):  lon int16,   lat int16   (coord 16-bit codes)

	Ids that were skipped while writing hold a sentinel record. The
	Double and Float sentinels store the bit patterns of math.MaxInt64
	and math.MaxInt32 in both slots; these are recognized by reading
	the slots back as integers. The Int and Short sentinels are the
	codes coord.Null32 and coord.Null16.

	Arrays are written once, by a Writer, in ascending id order, and
	may be opened for reading (by Open) only after the Writer has
	finished.
*/
package dense

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/pointstore/randio"
	"github.com/paulmach/orb"
)

// Precision is the coordinate precision of an array.
type Precision int

const (
	// Double stores float64 coordinates.
	Double Precision = iota
	// Float stores float32 coordinates.
	Float
	// Int stores 32-bit quantized coordinates.
	Int
	// Short stores 16-bit quantized coordinates.
	Short
)

// Stride returns the record size of the precision, in bytes.
func (p Precision) Stride() int64 {
	switch p {
	case Double:
		return 16
	case Float, Int:
		return 8
	case Short:
		return 4
	default:
		panic(fmt.Sprintf("dense: invalid precision %d", int(p)))
	}
}

func (p Precision) String() string {
	switch p {
	case Double:
		return "double"
	case Float:
		return "float"
	case Int:
		return "int"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

func (p Precision) valid() bool {
	return p >= Double && p <= Short
}

// Array is a read handle on a finished dense array file. Arrays are
// not safe for concurrent use.
type Array interface {
	// Get returns the point stored for id. Get returns an error of
	// kind errors.NotExist if id lies beyond the end of the array or
	// its record holds the sentinel.
	Get(id int64) (orb.Point, error)
	// Contains tells whether the array holds a point for id.
	//
	// Arrays of precision Int report true for every id unless they
	// were opened with StrictContains; see StrictContains.
	Contains(id int64) (bool, error)
	// Len returns the number of records in the array, one more than
	// the largest id written.
	Len() int64
	// Precision returns the array's precision.
	Precision() Precision
	// Close releases the array's file.
	Close() error
}

type options struct {
	backend randio.Config
	strict  bool
}

// Option configures arrays opened by Open.
type Option func(*options)

// Backend sets the random-access backend used to read the array. The
// default is randio.Direct.
func Backend(config randio.Config) Option {
	return func(o *options) {
		o.backend = config
	}
}

// StrictContains makes Contains of Int arrays compare the stored
// codes with coord.Null32. By default, Int arrays report that every id
// is contained, as arrays of this precision always have; callers that
// rely on that behavior must check Get for errors.NotExist instead.
// Other precisions always compare with their sentinel.
func StrictContains() Option {
	return func(o *options) {
		o.strict = true
	}
}

// Open opens the array file at path, written with the given
// precision.
func Open(path string, prec Precision, opts ...Option) (Array, error) {
	if !prec.valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("dense: invalid precision %d", int(prec)))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r, err := randio.Open(path, o.backend)
	if err != nil {
		return nil, err
	}
	a := array{r: r, path: path, prec: prec}
	switch prec {
	case Double:
		return &doubleArray{a}, nil
	case Float:
		return &floatArray{a}, nil
	case Int:
		return &intArray{array: a, strict: o.strict}, nil
	default:
		return &shortArray{a}, nil
	}
}

// array holds the state shared by all precisions.
type array struct {
	r    randio.Reader
	path string
	prec Precision
}

func (a *array) seek(id int64) error {
	if id < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("dense: negative id %d", id))
	}
	// Ids past the end also guard the offset against overflow.
	if id >= a.Len() {
		return a.notFound(id)
	}
	return a.r.Seek(id * a.prec.Stride())
}

func (a *array) notFound(id int64) error {
	return errors.E(errors.NotExist, fmt.Sprintf("dense: node %d not in %s", id, a.path))
}

// readError maps an error from reading the record of id. Reading past
// the end of the file means the id was never written.
func (a *array) readError(id int64, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return a.notFound(id)
	}
	return errors.E(err, fmt.Sprintf("dense: read node %d from %s", id, a.path))
}

func (a *array) Len() int64 {
	return a.r.Size() / a.prec.Stride()
}

func (a *array) Precision() Precision {
	return a.prec
}

func (a *array) Close() error {
	return a.r.Close()
}

// ignoreNotFound returns nil if err is of kind errors.NotExist, and err
// otherwise.
func ignoreNotFound(err error) error {
	if errors.Is(errors.NotExist, err) {
		return nil
	}
	return err
}
