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
	"math/bits"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// CompareFunc compares two elements, each passed as a stride-long view into
// the buffer being sorted or into the session's scratch space. It returns a
// negative number when a sorts before b, a positive number when a sorts
// after b and zero when they are equivalent. It must define a total order
// and must not retain or modify its arguments. Any context the comparison
// needs is carried by the closure.
type CompareFunc func(a, b []byte) int

// State is the kind of work the most recent Step performed.
type State int

const (
	// Idle: no step has run yet.
	Idle State = iota
	// Collapsing: the step merged two pending runs to restore the stack
	// balance invariants.
	Collapsing
	// Appending: the step detected, extended and pushed the next run.
	Appending
	// ForceCollapsing: input is exhausted and the step merged two of the
	// remaining runs.
	ForceCollapsing
	// Done: the step found nothing left to do.
	Done
)

func (st State) String() string {
	switch st {
	case Idle:
		return "idle"
	case Collapsing:
		return "collapsing"
	case Appending:
		return "appending"
	case ForceCollapsing:
		return "force-collapsing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Stats counts the work a session has performed.
type Stats struct {
	Compares int // comparator invocations
	Moves    int // elements written into the sorted buffer
	Staged   int // elements copied into the scratch buffer
	Merges   int // mergeAt calls, including ones that found nothing to move
	Runs     int // runs pushed by the run detector
}

type run struct {
	base int
	len  int
}

// Session holds the state of one incremental sort over a fixed-stride
// buffer. A Session is not safe for concurrent use, and the buffer must not
// be modified by anyone else until Finish has been called.
//
// Usage:
//
//	s := timsort.New(buf, 8, cmp)
//	defer s.Finish()
//	for {
//	    ok, changed := s.Step()
//	    if !ok {
//	        break
//	    }
//	    refresh(changed)
//	}
type Session struct {
	buf    []byte
	stride int
	size   int
	cmp    CompareFunc
	mv     mover

	// base is the index of the first element not yet part of a pending run.
	base      int
	remaining int

	minRun    int
	minGallop int
	maxMerge  int

	// tmp holds scratchCap elements; pivot holds one.
	tmp        []byte
	scratchCap int
	pivot      []byte

	runs    [maxPending]run
	pending int

	state    State
	stepped  bool
	finished bool
	stats    Stats
}

// New starts a session sorting buf, which holds len(buf)/stride elements of
// stride bytes each, in the order defined by cmp.
func New(buf []byte, stride int, cmp CompareFunc) *Session {
	if stride <= 0 {
		panic(errors.AssertionFailedf("timsort: stride must be positive, got %d", stride))
	}
	if len(buf)%stride != 0 {
		panic(errors.AssertionFailedf("timsort: buffer length %d is not a multiple of stride %d", len(buf), stride))
	}
	if cmp == nil {
		panic(errors.AssertionFailedf("timsort: nil comparison function"))
	}
	n := len(buf) / stride
	return &Session{
		buf:       buf,
		stride:    stride,
		size:      n,
		cmp:       cmp,
		mv:        newMover(stride, !noFastPath),
		remaining: n,
		minRun:    minRunLength(n),
		minGallop: initialMinGallop,
		maxMerge:  Unbounded,
		pivot:     alignedBytes(stride),
	}
}

// Sort sorts buf in place, stably, in the order defined by cmp.
func Sort(buf []byte, stride int, cmp CompareFunc) {
	s := New(buf, stride, cmp)
	defer s.Finish()
	for {
		if ok, _ := s.Step(); !ok {
			return
		}
	}
}

// minRunLength returns the length below which a natural run is extended with
// binary insertion. For n < minMerge that is n itself, so short inputs are
// sorted in a single step; otherwise it is a value k in [minMerge/2,
// minMerge] such that n/k is close to, but no more than, a power of two.
func minRunLength(n int) int {
	r := 0
	for n >= minMerge {
		r |= n & 1
		n >>= 1
	}
	return n + r
}

// Step performs one unit of work: a collapse merge if the pending runs
// violate the balance invariants, otherwise detecting and pushing the next
// run if input remains, otherwise merging two of the remaining runs. It
// reports whether any work was done and the region of the buffer that work
// changed.
func (s *Session) Step() (bool, Region) {
	s.checkLive("Step")
	s.stepped = true

	var r Region
	switch {
	case s.mergeCollapse(&r):
		s.state = Collapsing
	case s.findRun(&r):
		s.state = Appending
	case s.mergeForceCollapse(&r):
		s.state = ForceCollapsing
	default:
		s.state = Done
		return false, Region{}
	}
	return true, r
}

// findRun detects the next natural run, extends it to minRun elements and
// pushes it onto the pending stack.
func (s *Session) findRun(r *Region) bool {
	if s.remaining == 0 {
		return false
	}
	n := s.countRunAndMakeAscending(r)
	if n < s.minRun {
		force := min(s.remaining, s.minRun)
		s.binarySort(s.base, s.base+force, s.base+n, r)
		n = force
	}
	s.stats.Runs++
	s.pushRun(n)
	return true
}

// SetAlreadySorted registers the first n remaining elements as one sorted
// run. It may only be called before the first Step and before any runs have
// been registered.
func (s *Session) SetAlreadySorted(n int) {
	s.checkLive("SetAlreadySorted")
	s.checkUnstarted("SetAlreadySorted")
	if n < 0 || n > s.remaining {
		panic(errors.AssertionFailedf("timsort: already sorted prefix %d out of range [0, %d]", n, s.remaining))
	}
	if n > 0 {
		s.pushRun(n)
	}
}

// Runs returns the lengths of the pending runs, bottom of the stack first.
// The runs cover the buffer prefix [0, sum) and, together with the unsorted
// remainder, are everything needed to resume the sort with SetRuns.
func (s *Session) Runs() []int {
	lens := make([]int, s.pending)
	for i := range lens {
		lens[i] = s.runs[i].len
	}
	return lens
}

// SetRuns imports pending run lengths previously returned by Runs. Like
// SetAlreadySorted it must precede the first Step, and the caller vouches
// that each run is sorted.
func (s *Session) SetRuns(lens []int) {
	s.checkLive("SetRuns")
	s.checkUnstarted("SetRuns")
	if len(lens) > maxPending {
		panic(errors.AssertionFailedf("timsort: %d runs exceed the pending stack capacity %d", len(lens), maxPending))
	}
	total := 0
	for i, n := range lens {
		if n <= 0 {
			panic(errors.AssertionFailedf("timsort: run %d has non-positive length %d", i, n))
		}
		total += n
	}
	if total > s.remaining {
		panic(errors.AssertionFailedf("timsort: runs cover %d elements, only %d remain", total, s.remaining))
	}
	for _, n := range lens {
		s.pushRun(n)
	}
}

// SetMaxMergeSize bounds how many elements a single merge stages in scratch
// space; longer merges are split across several steps. Unbounded removes
// the bound.
func (s *Session) SetMaxMergeSize(n int) {
	s.checkLive("SetMaxMergeSize")
	if n <= 0 {
		panic(errors.AssertionFailedf("timsort: max merge size must be positive, got %d", n))
	}
	s.maxMerge = n
}

// Progress estimates how much of the sort is complete, on a scale from 0 to
// Size(). The estimate weighs the lengths of the runs at the bottom of the
// pending stack, where the long, mostly merged runs live. It reaches Size()
// only once the sort is done.
func (s *Session) Progress() int {
	if s.Done() {
		return s.size
	}
	if s.pending == 0 {
		return 0
	}
	last := s.runs[0].len
	progress := 0
	i := 1
	for ; i < progressDepth+1 && i < s.pending; i++ {
		progress += (progressDepth + 1 - i) * max(last, s.runs[i].len)
		last = min(last, s.runs[i].len)
	}
	if i < progressDepth+1 {
		progress += (progressDepth + 1 - i) * last
	}
	return min(progress/progressDepth, s.size-1)
}

// Done reports whether the buffer is fully sorted: no input is left and at
// most one run is pending.
func (s *Session) Done() bool {
	return s.remaining == 0 && s.pending <= 1
}

// Finish releases the session's scratch memory. It must be called exactly
// once, whether or not the sort completed; an abandoned sort leaves every
// pushed run sorted but the buffer as a whole unsorted.
func (s *Session) Finish() {
	s.checkLive("Finish")
	s.finished = true
	s.tmp = nil
	s.scratchCap = 0
	s.pivot = nil
	s.buf = nil
}

// State returns the kind of work the most recent Step performed.
func (s *Session) State() State { return s.state }

// Size returns the number of elements being sorted.
func (s *Session) Size() int { return s.size }

// Remaining returns the number of elements not yet part of a pending run.
func (s *Session) Remaining() int { return s.remaining }

// Stride returns the element width in bytes.
func (s *Session) Stride() int { return s.stride }

// Stats returns the work counters accumulated so far.
func (s *Session) Stats() Stats { return s.stats }

// MinGallop returns the current adaptive galloping threshold.
func (s *Session) MinGallop() int { return s.minGallop }

// ScratchCap returns the scratch buffer capacity in elements.
func (s *Session) ScratchCap() int { return s.scratchCap }

// MovePath returns how the session moves single elements.
func (s *Session) MovePath() MovePath { return s.mv.path }

func (s *Session) checkLive(op string) {
	if s.finished {
		panic(errors.AssertionFailedf("timsort: %s called after Finish", op))
	}
}

func (s *Session) checkUnstarted(op string) {
	if s.stepped || s.pending != 0 {
		panic(errors.AssertionFailedf("timsort: %s called after sorting started", op))
	}
}

func (s *Session) compare(a, b []byte) int {
	s.stats.Compares++
	return s.cmp(a, b)
}

// at returns the view of element i of the buffer.
func (s *Session) at(i int) []byte {
	o := i * s.stride
	return s.buf[o : o+s.stride : o+s.stride]
}

// span returns the view of n elements of the buffer starting at i.
func (s *Session) span(i, n int) []byte {
	return s.buf[i*s.stride : (i+n)*s.stride]
}

func (s *Session) tmpAt(i int) []byte {
	o := i * s.stride
	return s.tmp[o : o+s.stride : o+s.stride]
}

func (s *Session) tmpSpan(i, n int) []byte {
	return s.tmp[i*s.stride : (i+n)*s.stride]
}

// elemOf returns element i of a view that starts on an element boundary.
func (s *Session) elemOf(a []byte, i int) []byte {
	o := i * s.stride
	return a[o : o+s.stride : o+s.stride]
}

// put writes one element into buffer slot dest.
func (s *Session) put(dest int, src []byte) {
	s.mv.one(s.at(dest), src)
	s.stats.Moves++
}

// putBlock writes a run of elements into the buffer starting at dest.
func (s *Session) putBlock(dest int, src []byte) {
	n := copy(s.buf[dest*s.stride:], src)
	s.stats.Moves += n / s.stride
}

// shift moves n buffer elements from src to dest; the ranges may overlap.
func (s *Session) shift(dest, src, n int) {
	copy(s.span(dest, n), s.span(src, n))
	s.stats.Moves += n
}

// stage copies n buffer elements starting at i into the scratch buffer.
func (s *Session) stage(i, n int) {
	s.ensureScratch(n)
	copy(s.tmp, s.span(i, n))
	s.stats.Staged += n
}

// ensureScratch grows the scratch buffer to hold at least n elements. It
// grows to the next power of two, never beyond what a merge of this input
// can stage, and never shrinks.
func (s *Session) ensureScratch(n int) {
	if s.scratchCap >= n {
		return
	}
	c := max(1<<bits.Len(uint(n-1)), initialScratch)
	c = min(c, max(n, s.size/2))
	s.tmp = alignedBytes(c * s.stride)
	s.scratchCap = c
}

// alignedBytes allocates n bytes backed by 8-byte words, so that element
// views at multiples of a stride up to 8 are aligned for that stride.
func alignedBytes(n int) []byte {
	if n == 0 {
		return nil
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), n)
}
