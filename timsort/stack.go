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

import "github.com/cockroachdb/errors"

// pushRun registers the next n unprocessed elements as a pending run.
func (s *Session) pushRun(n int) {
	if s.pending == maxPending {
		panic(errors.AssertionFailedf("timsort: pending run stack overflow (%d runs)", maxPending))
	}
	s.runs[s.pending] = run{base: s.base, len: n}
	s.pending++
	s.base += n
	s.remaining -= n
}

// mergeCollapse merges one pair of adjacent pending runs if the stack
// violates its balance invariants. With D on top of C on top of B on top of
// A, the invariants are
//
//	A > B + C
//	B > C + D
//	C > D
//
// On a violation involving B, C is merged with the smaller of B and D.
func (s *Session) mergeCollapse(r *Region) bool {
	if s.pending <= 1 {
		return false
	}
	runs := &s.runs
	n := s.pending - 2
	if (n > 0 && runs[n-1].len <= runs[n].len+runs[n+1].len) ||
		(n > 1 && runs[n-2].len <= runs[n].len+runs[n-1].len) {
		if runs[n-1].len < runs[n+1].len {
			n--
		}
	} else if runs[n].len > runs[n+1].len {
		return false
	}
	s.mergeAt(n, r)
	return true
}

// mergeForceCollapse merges one pair of the runs left once input is
// exhausted, ignoring the balance invariants.
func (s *Session) mergeForceCollapse(r *Region) bool {
	if s.pending <= 1 {
		return false
	}
	n := s.pending - 2
	if n > 0 && s.runs[n-1].len < s.runs[n+1].len {
		n--
	}
	s.mergeAt(n, r)
	return true
}
