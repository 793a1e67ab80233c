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

import "math"

// Tuning constants. None of these change after a session is created; the
// adaptive gallop threshold lives on the Session.
const (
	// minMerge: inputs shorter than this are sorted as a single binary
	// insertion run, and minRunLength never returns less than minMerge/2.
	minMerge = 32

	// initialMinGallop is the starting value of Session.minGallop and the
	// fixed win-streak that keeps a merge in galloping mode.
	initialMinGallop = 7

	// maxPending bounds the pending run stack. The balance invariants make
	// run lengths grow at least as fast as Fibonacci numbers from the top of
	// the stack, so 86 entries cover any count representable in an int.
	maxPending = 86

	// initialScratch is the smallest scratch buffer, in elements, that a
	// merge allocates.
	initialScratch = 256

	// progressDepth is how many stack entries Progress weighs.
	progressDepth = 4
)

// Unbounded disables the per-merge size cap. It is the default.
const Unbounded = math.MaxInt

// MaxRuns is the capacity of the pending run stack, the most runs SetRuns
// accepts.
const MaxRuns = maxPending
