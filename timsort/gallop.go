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

// gallopLeft locates the leftmost position at which key could be inserted
// into the n sorted elements of a: the returned k satisfies a[:k] < key <=
// a[k:]. The search starts at hint, expands in steps of 1, 3, 7, 15, ... in
// the direction key lies, then binary-searches the bracket it found. n must
// be positive and hint in [0, n).
func (s *Session) gallopLeft(key, a []byte, n, hint int) int {
	lastOfs, ofs := 0, 1
	if s.compare(key, s.elemOf(a, hint)) > 0 {
		// a[hint] < key: gallop right until a[hint+lastOfs] < key <= a[hint+ofs].
		maxOfs := n - hint
		for ofs < maxOfs && s.compare(key, s.elemOf(a, hint+ofs)) > 0 {
			lastOfs = ofs
			ofs = ofs<<1 + 1
			if ofs <= 0 {
				ofs = maxOfs
			}
		}
		ofs = min(ofs, maxOfs)
		lastOfs += hint
		ofs += hint
	} else {
		// key <= a[hint]: gallop left until a[hint-ofs] < key <= a[hint-lastOfs].
		maxOfs := hint + 1
		for ofs < maxOfs && s.compare(key, s.elemOf(a, hint-ofs)) <= 0 {
			lastOfs = ofs
			ofs = ofs<<1 + 1
			if ofs <= 0 {
				ofs = maxOfs
			}
		}
		ofs = min(ofs, maxOfs)
		lastOfs, ofs = hint-ofs, hint-lastOfs
	}

	// Now a[lastOfs] < key <= a[ofs], with lastOfs possibly -1 and ofs
	// possibly n. Binary search the gap.
	lastOfs++
	for lastOfs < ofs {
		m := lastOfs + (ofs-lastOfs)>>1
		if s.compare(key, s.elemOf(a, m)) > 0 {
			lastOfs = m + 1
		} else {
			ofs = m
		}
	}
	return ofs
}

// gallopRight is gallopLeft for the rightmost insertion point: the returned
// k satisfies a[:k] <= key < a[k:]. Elements equal to key therefore stay to
// its left.
func (s *Session) gallopRight(key, a []byte, n, hint int) int {
	lastOfs, ofs := 0, 1
	if s.compare(key, s.elemOf(a, hint)) < 0 {
		// key < a[hint]: gallop left until a[hint-ofs] <= key < a[hint-lastOfs].
		maxOfs := hint + 1
		for ofs < maxOfs && s.compare(key, s.elemOf(a, hint-ofs)) < 0 {
			lastOfs = ofs
			ofs = ofs<<1 + 1
			if ofs <= 0 {
				ofs = maxOfs
			}
		}
		ofs = min(ofs, maxOfs)
		lastOfs, ofs = hint-ofs, hint-lastOfs
	} else {
		// a[hint] <= key: gallop right until a[hint+lastOfs] <= key < a[hint+ofs].
		maxOfs := n - hint
		for ofs < maxOfs && s.compare(key, s.elemOf(a, hint+ofs)) >= 0 {
			lastOfs = ofs
			ofs = ofs<<1 + 1
			if ofs <= 0 {
				ofs = maxOfs
			}
		}
		ofs = min(ofs, maxOfs)
		lastOfs += hint
		ofs += hint
	}

	lastOfs++
	for lastOfs < ofs {
		m := lastOfs + (ofs-lastOfs)>>1
		if s.compare(key, s.elemOf(a, m)) < 0 {
			ofs = m
		} else {
			lastOfs = m + 1
		}
	}
	return ofs
}
