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

// countRunAndMakeAscending returns the length of the run starting at the
// first unprocessed element. A run is either non-decreasing or strictly
// decreasing; a decreasing run is reversed in place, which is what keeps the
// sort stable: equal neighbours never belong to a run that gets reversed.
func (s *Session) countRunAndMakeAscending(r *Region) int {
	lo := s.base
	hi := s.base + s.remaining
	runHi := lo + 1
	if runHi == hi {
		return 1
	}

	if s.compare(s.at(runHi), s.at(lo)) < 0 {
		runHi++
		for runHi < hi && s.compare(s.at(runHi), s.at(runHi-1)) < 0 {
			runHi++
		}
		s.reverseRange(lo, runHi)
		*r = r.Union(Region{Start: lo, Len: runHi - lo})
	} else {
		runHi++
		for runHi < hi && s.compare(s.at(runHi), s.at(runHi-1)) >= 0 {
			runHi++
		}
	}
	return runHi - lo
}

// reverseRange reverses elements [lo, hi) by swapping from both ends inward.
func (s *Session) reverseRange(lo, hi int) {
	hi--
	for lo < hi {
		s.mv.swap(s.at(lo), s.at(hi))
		s.stats.Moves += 2
		lo++
		hi--
	}
}

// binarySort sorts [lo, hi) given that [lo, start) is already sorted, by
// binary insertion. Each element is inserted after any equal elements
// already placed, which keeps the result stable.
func (s *Session) binarySort(lo, hi, start int, r *Region) {
	if start == lo {
		start++
	}
	for ; start < hi; start++ {
		pivot := s.at(start)

		// Invariant: [lo, left) <= pivot < [right, start).
		left, right := lo, start
		for left < right {
			mid := int(uint(left+right) >> 1)
			if s.compare(pivot, s.at(mid)) < 0 {
				right = mid
			} else {
				left = mid + 1
			}
		}

		n := start - left
		if n == 0 {
			continue
		}
		s.mv.one(s.pivot, pivot)
		s.shift(left+1, left, n)
		s.put(left, s.pivot)
		*r = r.Union(Region{Start: left, Len: n + 1})
	}
}
