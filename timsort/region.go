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

import "fmt"

// Region is a contiguous range of elements, in element units, touched by one
// unit of work. A zero Len means nothing visible changed.
type Region struct {
	Start int
	Len   int
}

// Empty reports whether the region covers no elements.
func (r Region) Empty() bool {
	return r.Len == 0
}

// End returns the index one past the last element of the region.
func (r Region) End() int {
	return r.Start + r.Len
}

// Union returns the smallest region covering both r and o. An empty operand
// does not widen the result.
func (r Region) Union(o Region) Region {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	start := min(r.Start, o.Start)
	end := max(r.End(), o.End())
	return Region{Start: start, Len: end - start}
}

// Bytes converts the region to a byte offset and length for a buffer with
// the given stride.
func (r Region) Bytes(stride int) (off, n int) {
	return r.Start * stride, r.Len * stride
}

func (r Region) String() string {
	if r.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}
