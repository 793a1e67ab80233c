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
	"encoding/binary"
	"math/rand"
	"slices"
	"testing"
)

func generateInt64(n int) []int64 {
	data := make([]int64, n)
	for i := range data {
		data[i] = rand.Int63n(10000) - 5000
	}
	return data
}

// generateRuns returns data made of ascending runs of the given length,
// the input shape natural merge sorts are built for.
func generateRuns(n, runLen int) []int64 {
	data := make([]int64, n)
	for i := range data {
		data[i] = int64(i%runLen) * 7
	}
	return data
}

// generateRecords returns n records of the given stride keyed by a
// little-endian uint32 at offset 0.
func generateRecords(n, stride int) []byte {
	buf := make([]byte, n*stride)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*stride:], rand.Uint32())
	}
	return buf
}

func BenchmarkSortSlice_Int64_100(b *testing.B) {
	benchmarkSortSlice(b, generateInt64(100))
}

func BenchmarkSortSlice_Int64_1000(b *testing.B) {
	benchmarkSortSlice(b, generateInt64(1000))
}

func BenchmarkSortSlice_Int64_10000(b *testing.B) {
	benchmarkSortSlice(b, generateInt64(10000))
}

func BenchmarkSortSlice_Int64_100000(b *testing.B) {
	benchmarkSortSlice(b, generateInt64(100000))
}

func BenchmarkSortSlice_Runs_100000(b *testing.B) {
	benchmarkSortSlice(b, generateRuns(100000, 1000))
}

func benchmarkSortSlice(b *testing.B, ref []int64) {
	data := make([]int64, len(ref))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(data, ref)
		SortSlice(data)
	}
}

func BenchmarkStdlib_Int64_10000(b *testing.B) {
	benchmarkStdlib(b, generateInt64(10000))
}

func BenchmarkStdlib_Int64_100000(b *testing.B) {
	benchmarkStdlib(b, generateInt64(100000))
}

func BenchmarkStdlib_Runs_100000(b *testing.B) {
	benchmarkStdlib(b, generateRuns(100000, 1000))
}

func benchmarkStdlib(b *testing.B, ref []int64) {
	data := make([]int64, len(ref))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(data, ref)
		slices.SortStableFunc(data, cmp.Compare[int64])
	}
}

func BenchmarkSort_Stride8_100000(b *testing.B) {
	benchmarkSortRecords(b, 100000, 8)
}

func BenchmarkSort_Stride16_100000(b *testing.B) {
	benchmarkSortRecords(b, 100000, 16)
}

func BenchmarkSort_Stride24_100000(b *testing.B) {
	benchmarkSortRecords(b, 100000, 24)
}

func benchmarkSortRecords(b *testing.B, n, stride int) {
	ref := generateRecords(n, stride)
	buf := make([]byte, len(ref))

	b.SetBytes(int64(len(ref)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, ref)
		Sort(buf, stride, compareKey32)
	}
}

func BenchmarkStep_MaxMerge1024_100000(b *testing.B) {
	ref := generateRecords(100000, 8)
	buf := make([]byte, len(ref))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, ref)
		s := New(buf, 8, compareKey32)
		s.SetMaxMergeSize(1024)
		for {
			if ok, _ := s.Step(); !ok {
				break
			}
		}
		s.Finish()
	}
}
