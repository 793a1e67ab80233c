package timsort

import (
	"encoding/binary"
	"os"
	"strconv"
)

// MovePath identifies how a session copies and swaps single elements.
type MovePath int

const (
	// MoveGeneric copies elements with the built-in copy, any stride.
	MoveGeneric MovePath = iota

	// Move32 moves 4-byte elements with one load and one store.
	Move32

	// Move64 moves 8-byte (pointer-sized on 64-bit targets) elements.
	Move64

	// Move128 moves 16-byte elements as two 8-byte halves.
	Move128
)

// String returns a human-readable name for the move path.
func (p MovePath) String() string {
	switch p {
	case MoveGeneric:
		return "generic"
	case Move32:
		return "32-bit"
	case Move64:
		return "64-bit"
	case Move128:
		return "128-bit"
	default:
		return "unknown"
	}
}

// noFastPath is read once from the environment. Set by init().
var noFastPath bool

func init() {
	noFastPath = NoFastPathEnv()
}

// NoFastPathEnv checks if the TIMSORT_NO_FASTPATH environment variable is set.
// When set, every session uses MoveGeneric regardless of its stride.
// This is useful for testing and debugging.
func NoFastPathEnv() bool {
	val := os.Getenv("TIMSORT_NO_FASTPATH")
	if val == "" {
		return false
	}
	// Any non-empty value is considered true, but also parse as bool
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// movePathFor picks the move path for a stride.
func movePathFor(stride int, fast bool) MovePath {
	if !fast {
		return MoveGeneric
	}
	switch stride {
	case 4:
		return Move32
	case 8:
		return Move64
	case 16:
		return Move128
	default:
		return MoveGeneric
	}
}

// mover performs single-element copies and swaps for one stride. Block moves
// never go through a mover; they use copy directly, which has memmove
// semantics for overlapping ranges.
type mover struct {
	path MovePath
	one  func(dst, src []byte)
	swap func(a, b []byte)
}

func newMover(stride int, fast bool) mover {
	switch movePathFor(stride, fast) {
	case Move32:
		return mover{path: Move32, one: move32, swap: swap32}
	case Move64:
		return mover{path: Move64, one: move64, swap: swap64}
	case Move128:
		return mover{path: Move128, one: move128, swap: swap128}
	default:
		return mover{path: MoveGeneric, one: moveGeneric, swap: swapGeneric}
	}
}

// The fixed-width helpers go through encoding/binary so they stay correct
// for unaligned element offsets. Byte order is irrelevant since each value
// is stored back exactly as it was loaded.

func move32(dst, src []byte) {
	binary.LittleEndian.PutUint32(dst, binary.LittleEndian.Uint32(src))
}

func swap32(a, b []byte) {
	x := binary.LittleEndian.Uint32(a)
	binary.LittleEndian.PutUint32(a, binary.LittleEndian.Uint32(b))
	binary.LittleEndian.PutUint32(b, x)
}

func move64(dst, src []byte) {
	binary.LittleEndian.PutUint64(dst, binary.LittleEndian.Uint64(src))
}

func swap64(a, b []byte) {
	x := binary.LittleEndian.Uint64(a)
	binary.LittleEndian.PutUint64(a, binary.LittleEndian.Uint64(b))
	binary.LittleEndian.PutUint64(b, x)
}

func move128(dst, src []byte) {
	lo := binary.LittleEndian.Uint64(src)
	hi := binary.LittleEndian.Uint64(src[8:])
	binary.LittleEndian.PutUint64(dst, lo)
	binary.LittleEndian.PutUint64(dst[8:], hi)
}

func swap128(a, b []byte) {
	alo := binary.LittleEndian.Uint64(a)
	ahi := binary.LittleEndian.Uint64(a[8:])
	binary.LittleEndian.PutUint64(a, binary.LittleEndian.Uint64(b))
	binary.LittleEndian.PutUint64(a[8:], binary.LittleEndian.Uint64(b[8:]))
	binary.LittleEndian.PutUint64(b, alo)
	binary.LittleEndian.PutUint64(b[8:], ahi)
}

func moveGeneric(dst, src []byte) {
	copy(dst, src)
}

func swapGeneric(a, b []byte) {
	for i := range a {
		a[i], b[i] = b[i], a[i]
	}
}
