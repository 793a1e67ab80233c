// Package timsort provides an adaptive, stable, natural merge sort (a TimSort
// variant) over fixed-stride buffers of opaque records, with an incremental
// execution model.
//
// # Algorithm
//
// The input is consumed as a sequence of natural runs:
//   - Run detection finds the longest non-decreasing or strictly decreasing
//     run at the cursor and reverses decreasing runs in place
//   - Short runs are extended to a minimum length with binary insertion
//   - Runs wait on a bounded stack whose length invariants keep merges
//     balanced
//   - Merges stage the shorter run in scratch space and switch to galloping
//     (exponential search) when one side keeps winning
//
// # Incremental Use
//
// A Session performs one unit of work per Step: one merge or one pushed run.
// Each step reports the Region of the buffer it changed, so a caller can
// refresh only what moved. SetMaxMergeSize bounds the scratch space and the
// staged elements of any single step. Runs and SetRuns carry the pending run
// boundaries of an interrupted sort into a new session.
//
// # Example Usage
//
//	import "github.com/ajroetker/go-timsort/timsort"
//
//	func SortRecords(buf []byte) {
//	    timsort.Sort(buf, 16, func(a, b []byte) int {
//	        return bytes.Compare(a[:8], b[:8])
//	    })
//	}
//
//	func SortInts(data []int64) {
//	    timsort.SortSlice(data)
//	}
//
// # Contract Violations
//
// Programming errors, such as a zero stride, importing runs after sorting
// started, stepping a finished session, or a comparison function that is
// not a total order, panic with an assertion failure from
// github.com/cockroachdb/errors. They are not recoverable conditions.
//
// # Element Moves
//
// Sessions with a 4, 8 or 16 byte stride move single elements with fixed
// width loads and stores; other strides use copy. Set TIMSORT_NO_FASTPATH to
// force the generic path.
package timsort
