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

// mergeAt merges pending runs i and i+1, which must be the second and first
// (or third and second) runs from the top of the stack.
//
// With a merge cap in effect and the staged side longer than the cap, only
// part of the merge happens: mergeLo merges the last maxMerge elements of
// run i into run i+1, mergeHi merges the first maxMerge elements of run i+1
// into run i. Both runs stay pending with adjusted bounds and a later step
// continues the work.
func (s *Session) mergeAt(i int, r *Region) {
	if s.pending < 2 || (i != s.pending-2 && i != s.pending-3) {
		panic(errors.AssertionFailedf("timsort: merge at %d with %d pending runs", i, s.pending))
	}
	base1, len1 := s.runs[i].base, s.runs[i].len
	base2, len2 := s.runs[i+1].base, s.runs[i+1].len
	if len1 <= 0 || len2 <= 0 || base1+len1 != base2 {
		panic(errors.AssertionFailedf("timsort: runs %d and %d are not adjacent and non-empty", i, i+1))
	}
	s.stats.Merges++

	// Elements of run1 not greater than run2's first element are already in
	// place.
	k := s.gallopRight(s.at(base2), s.span(base1, len1), len1, 0)
	base1 += k
	len1 -= k
	if len1 == 0 {
		s.absorb(i)
		return
	}

	// Likewise elements of run2 not less than run1's last element.
	len2 = s.gallopLeft(s.at(base1+len1-1), s.span(base2, len2), len2, len2-1)
	if len2 == 0 {
		s.absorb(i)
		return
	}

	if len1 <= len2 {
		if len1 > s.maxMerge {
			c := s.maxMerge
			s.mergeLo(base2-c, c, base2, len2, r)
			s.runs[i].len -= c
			s.runs[i+1].base -= c
			s.runs[i+1].len += c
			return
		}
		s.mergeLo(base1, len1, base2, len2, r)
	} else {
		if len2 > s.maxMerge {
			c := s.maxMerge
			s.mergeHi(base1, len1, base2, c, r)
			s.runs[i].len += c
			s.runs[i+1].base += c
			s.runs[i+1].len -= c
			return
		}
		s.mergeHi(base1, len1, base2, len2, r)
	}
	s.absorb(i)
}

// absorb folds run i+1 into run i and pops the stack.
func (s *Session) absorb(i int) {
	s.runs[i].len += s.runs[i+1].len
	if i == s.pending-3 {
		s.runs[i+1] = s.runs[i+2]
	}
	s.pending--
}

func contractViolation() error {
	return errors.AssertionFailedf("timsort: comparison function violates its general contract")
}

// mergeLo stably merges the adjacent runs [base1, base1+len1) and [base2,
// base2+len2), with len1 <= len2 (or len1 capped). Run1 is staged in scratch
// space and the output is written left to right.
//
// The caller guarantees that the first element of run1 is greater than the
// first element of run2, and that the last element of run1 is greater than
// every element of run2.
func (s *Session) mergeLo(base1, len1, base2, len2 int, r *Region) {
	*r = r.Union(Region{Start: base1, Len: len1 + len2})
	s.stage(base1, len1)

	cursor1 := 0     // into tmp
	cursor2 := base2 // into buf
	dest := base1    // into buf

	s.put(dest, s.at(cursor2))
	dest++
	cursor2++
	len2--
	if len2 == 0 {
		s.putBlock(dest, s.tmpSpan(cursor1, len1))
		return
	}
	if len1 == 1 {
		s.shift(dest, cursor2, len2)
		s.put(dest+len2, s.tmpAt(cursor1))
		return
	}

	minGallop := s.minGallop
outer:
	for {
		count1 := 0 // consecutive wins by run1
		count2 := 0 // consecutive wins by run2

		// Pairwise until one run starts winning consistently.
		for {
			if s.compare(s.at(cursor2), s.tmpAt(cursor1)) < 0 {
				s.put(dest, s.at(cursor2))
				dest++
				cursor2++
				count2++
				count1 = 0
				len2--
				if len2 == 0 {
					break outer
				}
			} else {
				s.put(dest, s.tmpAt(cursor1))
				dest++
				cursor1++
				count1++
				count2 = 0
				len1--
				if len1 == 1 {
					break outer
				}
			}
			if (count1 | count2) >= minGallop {
				break
			}
		}

		// Galloping until it stops paying off.
		for {
			count1 = s.gallopRight(s.at(cursor2), s.tmpSpan(cursor1, len1), len1, 0)
			if count1 != 0 {
				s.putBlock(dest, s.tmpSpan(cursor1, count1))
				dest += count1
				cursor1 += count1
				len1 -= count1
				if len1 <= 1 {
					break outer
				}
			}
			s.put(dest, s.at(cursor2))
			dest++
			cursor2++
			len2--
			if len2 == 0 {
				break outer
			}

			count2 = s.gallopLeft(s.tmpAt(cursor1), s.span(cursor2, len2), len2, 0)
			if count2 != 0 {
				s.shift(dest, cursor2, count2)
				dest += count2
				cursor2 += count2
				len2 -= count2
				if len2 == 0 {
					break outer
				}
			}
			s.put(dest, s.tmpAt(cursor1))
			dest++
			cursor1++
			len1--
			if len1 == 1 {
				break outer
			}
			minGallop--
			if count1 < initialMinGallop && count2 < initialMinGallop {
				break
			}
		}
		minGallop = max(minGallop, 0) + 2
	}
	s.minGallop = max(minGallop, 1)

	switch len1 {
	case 1:
		s.shift(dest, cursor2, len2)
		s.put(dest+len2, s.tmpAt(cursor1))
	case 0:
		panic(contractViolation())
	default:
		s.putBlock(dest, s.tmpSpan(cursor1, len1))
	}
}

// mergeHi is the mirror of mergeLo for len1 >= len2 (or len2 capped): run2
// is staged and the output is written right to left. The preconditions are
// the same as for mergeLo.
func (s *Session) mergeHi(base1, len1, base2, len2 int, r *Region) {
	*r = r.Union(Region{Start: base1, Len: len1 + len2})
	s.stage(base2, len2)

	cursor1 := base1 + len1 - 1 // into buf
	cursor2 := len2 - 1         // into tmp
	dest := base2 + len2 - 1    // into buf

	s.put(dest, s.at(cursor1))
	dest--
	cursor1--
	len1--
	if len1 == 0 {
		s.putBlock(dest-(len2-1), s.tmpSpan(0, len2))
		return
	}
	if len2 == 1 {
		dest -= len1
		cursor1 -= len1
		s.shift(dest+1, cursor1+1, len1)
		s.put(dest, s.tmpAt(cursor2))
		return
	}

	minGallop := s.minGallop
outer:
	for {
		count1 := 0
		count2 := 0

		for {
			if s.compare(s.tmpAt(cursor2), s.at(cursor1)) < 0 {
				s.put(dest, s.at(cursor1))
				dest--
				cursor1--
				count1++
				count2 = 0
				len1--
				if len1 == 0 {
					break outer
				}
			} else {
				s.put(dest, s.tmpAt(cursor2))
				dest--
				cursor2--
				count2++
				count1 = 0
				len2--
				if len2 == 1 {
					break outer
				}
			}
			if (count1 | count2) >= minGallop {
				break
			}
		}

		for {
			count1 = len1 - s.gallopRight(s.tmpAt(cursor2), s.span(base1, len1), len1, len1-1)
			if count1 != 0 {
				dest -= count1
				cursor1 -= count1
				len1 -= count1
				s.shift(dest+1, cursor1+1, count1)
				if len1 == 0 {
					break outer
				}
			}
			s.put(dest, s.tmpAt(cursor2))
			dest--
			cursor2--
			len2--
			if len2 == 1 {
				break outer
			}

			count2 = len2 - s.gallopLeft(s.at(cursor1), s.tmpSpan(0, len2), len2, len2-1)
			if count2 != 0 {
				dest -= count2
				cursor2 -= count2
				len2 -= count2
				s.putBlock(dest+1, s.tmpSpan(cursor2+1, count2))
				if len2 <= 1 {
					break outer
				}
			}
			s.put(dest, s.at(cursor1))
			dest--
			cursor1--
			len1--
			if len1 == 0 {
				break outer
			}
			minGallop--
			if count1 < initialMinGallop && count2 < initialMinGallop {
				break
			}
		}
		minGallop = max(minGallop, 0) + 2
	}
	s.minGallop = max(minGallop, 1)

	switch len2 {
	case 1:
		dest -= len1
		cursor1 -= len1
		s.shift(dest+1, cursor1+1, len1)
		s.put(dest, s.tmpAt(cursor2))
	case 0:
		panic(contractViolation())
	default:
		s.putBlock(dest-(len2-1), s.tmpSpan(0, len2))
	}
}
