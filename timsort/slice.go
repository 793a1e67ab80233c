// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timsort

import (
	"cmp"
	"unsafe"
)

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for the fixed-size, pointer-free element types the
// typed API can sort through the byte-stride engine. 4- and 8-byte types
// use the Move32 and Move64 paths.
type Lanes interface {
	Floats | Integers
}

// SortSlice sorts data in ascending order, stably. Floats follow
// cmp.Compare, so NaNs sort before every other value.
func SortSlice[T Lanes](data []T) {
	SortSliceFunc(data, cmp.Compare[T])
}

// SortSliceFunc sorts data stably in the order defined by compare.
func SortSliceFunc[T Lanes](data []T, compare func(a, b T) int) {
	if len(data) <= 1 {
		return
	}
	s := NewSlice(data, compare)
	defer s.Finish()
	for {
		if ok, _ := s.Step(); !ok {
			return
		}
	}
}

// NewSlice starts an incremental session over the memory of data. Regions
// reported by Step index data directly.
func NewSlice[T Lanes](data []T, compare func(a, b T) int) *Session {
	var zero T
	size := int(unsafe.Sizeof(zero))
	return New(asBytes(data), size, func(a, b []byte) int {
		return compare(load[T](a), load[T](b))
	})
}

// IsSorted reports whether data is in ascending cmp.Compare order.
func IsSorted[T Lanes](data []T) bool {
	return IsSortedFunc(data, cmp.Compare[T])
}

// IsSortedFunc reports whether data is sorted according to compare.
func IsSortedFunc[T Lanes](data []T, compare func(a, b T) int) bool {
	for i := 1; i < len(data); i++ {
		if compare(data[i], data[i-1]) < 0 {
			return false
		}
	}
	return true
}

// FirstUnsorted returns the index of the first element of buf that sorts
// before its predecessor, or -1 if buf is sorted.
func FirstUnsorted(buf []byte, stride int, compare CompareFunc) int {
	n := len(buf) / stride
	for i := 1; i < n; i++ {
		if compare(buf[i*stride:(i+1)*stride], buf[(i-1)*stride:i*stride]) < 0 {
			return i
		}
	}
	return -1
}

// asBytes views the memory of data as bytes. T is pointer-free, so the
// engine may move its bytes freely.
func asBytes[T Lanes](data []T) []byte {
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*int(unsafe.Sizeof(zero)))
}

// load reads a T from an element view. Views into the caller's slice are
// aligned because they come from a []T; views into scratch space are
// aligned because alignedBytes backs it with 8-byte words.
func load[T Lanes](b []byte) T {
	return *(*T)(unsafe.Pointer(unsafe.SliceData(b)))
}
