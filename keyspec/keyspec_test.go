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

package keyspec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-timsort/timsort"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in    string
		want  []Field
		width int
		canon string
	}{
		{"u32le", []Field{{Type: "u32le", Offset: 0, Length: 4}}, 4, "u32le@0"},
		{" i64be@8 ", []Field{{Type: "i64be", Offset: 8, Length: 8}}, 16, "i64be@8"},
		{"u16be,u8/desc", []Field{
			{Type: "u16be", Offset: 0, Length: 2},
			{Type: "u8", Offset: 2, Length: 1, Desc: true},
		}, 3, "u16be@0,u8@2/desc"},
		{"str@16:32/collate=sv/fold,u64le@0", []Field{
			{Type: "str", Offset: 16, Length: 32, Collate: "sv", Fold: true},
			{Type: "u64le", Offset: 0, Length: 8},
		}, 48, "str@16:32/collate=sv/fold,u64le@0"},
		{"bytes:4,f64le:8", []Field{
			{Type: "bytes", Offset: 0, Length: 4},
			{Type: "f64le", Offset: 4, Length: 8},
		}, 12, "bytes@0:4,f64le@4"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			s, err := Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, s.Fields)
			require.Equal(t, tc.width, s.Width())
			require.Equal(t, tc.canon, s.String())

			again, err := Parse(s.String())
			require.NoError(t, err)
			require.Equal(t, s, again)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		in   string
		msg  string
		hint string
	}{
		{"", "empty key", "u32le"},
		{"u24le", `unknown type "u24le"`, "valid types"},
		{"str", "str needs a length", "str:16"},
		{"u32le:8", "u32le is 4 bytes wide, not 8", ""},
		{"u32le@x", `invalid offset "x"`, ""},
		{"u32le@-1", `invalid offset "-1"`, ""},
		{"bytes:0", `invalid length "0"`, ""},
		{"u32le/up", `unknown option "up"`, "valid options"},
		{"u32le/desc=1", "desc takes no value", ""},
		{"u32le/fold", "fold applies to str fields only", ""},
		{"bytes:4/collate=en", "collate applies to str fields only", ""},
		{"str:8/collate=", "invalid collation", "BCP 47"},
		{"u8,u9", "key field 2", "valid types"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			_, err := Parse(tc.in)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.msg)
			if tc.hint != "" {
				hints := errors.GetAllHints(err)
				require.NotEmpty(t, hints)
				require.Contains(t, hints[0], tc.hint)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	s := MustParse("u64le@8")
	require.NoError(t, s.Check(16))
	require.NoError(t, s.Check(24))
	err := s.Check(12)
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs 16 bytes, records are 12")
	require.Panics(t, func() { MustParse("nope") })
}

func compareWith(t *testing.T, spec string, a, b []byte) int {
	t.Helper()
	fn, err := MustParse(spec).Compare()
	require.NoError(t, err)
	return fn(a, b)
}

func TestCompareIntegers(t *testing.T) {
	a := make([]byte, 8)
	b := make([]byte, 8)

	// 0x0100 against 0x0001: the byte order decides.
	binary.LittleEndian.PutUint16(a, 0x0100)
	binary.LittleEndian.PutUint16(b, 0x0001)
	require.Equal(t, 1, compareWith(t, "u16le", a, b))
	require.Equal(t, -1, compareWith(t, "u16be", a, b))

	// -1 against 1 as signed and unsigned.
	binary.BigEndian.PutUint32(a, math.MaxUint32)
	binary.BigEndian.PutUint32(b, 1)
	require.Equal(t, -1, compareWith(t, "i32be", a, b))
	require.Equal(t, 1, compareWith(t, "u32be", a, b))
	require.Equal(t, 1, compareWith(t, "i32be/desc", a, b))

	binary.LittleEndian.PutUint64(a, uint64(1)<<63)
	binary.LittleEndian.PutUint64(b, 5)
	require.Equal(t, -1, compareWith(t, "i64le", a, b))
	require.Equal(t, 1, compareWith(t, "u64le", a, b))

	require.Equal(t, 1, compareWith(t, "u8@7", []byte{0, 0, 0, 0, 0, 0, 0, 0xff}, make([]byte, 8)))
	require.Equal(t, -1, compareWith(t, "i8@7", []byte{0, 0, 0, 0, 0, 0, 0, 0xff}, make([]byte, 8)))
	require.Equal(t, 0, compareWith(t, "u32le", a, a))
}

func TestCompareFloats(t *testing.T) {
	enc := func(v float64) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		return b
	}
	require.Equal(t, -1, compareWith(t, "f64le", enc(-2.5), enc(1)))
	require.Equal(t, 1, compareWith(t, "f64le", enc(math.Inf(1)), enc(1e300)))
	require.Equal(t, -1, compareWith(t, "f64le", enc(math.NaN()), enc(math.Inf(-1))))
	require.Equal(t, 0, compareWith(t, "f64le", enc(math.NaN()), enc(math.NaN())))

	b32 := func(v float32) []byte {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, math.Float32bits(v))
		return b
	}
	require.Equal(t, 1, compareWith(t, "f32be", b32(0.5), b32(-0.5)))
	require.Equal(t, -1, compareWith(t, "f32be/desc", b32(0.5), b32(-0.5)))
}

func TestCompareStrings(t *testing.T) {
	pad := func(s string) []byte {
		b := make([]byte, 8)
		copy(b, s)
		return b
	}
	require.Equal(t, -1, compareWith(t, "str:8", pad("ab"), pad("abc")))
	require.Equal(t, 0, compareWith(t, "str:8", pad("abc"), pad("abc")))
	require.Equal(t, -1, compareWith(t, "bytes:8", pad("ab"), pad("abc")))

	// Byte order puts every uppercase letter first; folding does not.
	require.Equal(t, -1, compareWith(t, "str:8", pad("Zebra"), pad("apple")))
	require.Equal(t, 1, compareWith(t, "str:8/fold", pad("Zebra"), pad("apple")))
	require.Equal(t, 0, compareWith(t, "str:8/fold", pad("APPLE"), pad("apple")))

	// UTF-8 bytes sort é after z; a collation puts it next to e.
	require.Equal(t, 1, compareWith(t, "str:8", pad("é"), pad("f")))
	require.Equal(t, -1, compareWith(t, "str:8/collate=en", pad("é"), pad("f")))
	require.Equal(t, 1, compareWith(t, "str:8/collate=en/desc", pad("é"), pad("f")))
}

func TestCompareMultiField(t *testing.T) {
	rec := func(group uint8, name string) []byte {
		b := make([]byte, 8)
		b[0] = group
		copy(b[1:], name)
		return b
	}
	spec := "u8/desc,str:7"
	require.Equal(t, -1, compareWith(t, spec, rec(2, "b"), rec(1, "a")))
	require.Equal(t, -1, compareWith(t, spec, rec(1, "a"), rec(1, "b")))
	require.Equal(t, 0, compareWith(t, spec, rec(1, "a"), rec(1, "a")))
}

func TestCompareEmptySpec(t *testing.T) {
	_, err := Spec{}.Compare()
	require.Error(t, err)
	_, err = Spec{Fields: []Field{{Type: "u24"}}}.Compare()
	require.Error(t, err)
}

func TestSortWithKey(t *testing.T) {
	// Records: i16be key at offset 2, original index at offset 0.
	keys := []int16{3, -7, 3, 0, -7, 12, 3}
	buf := make([]byte, 4*len(keys))
	for i, k := range keys {
		binary.BigEndian.PutUint16(buf[4*i:], uint16(i))
		binary.BigEndian.PutUint16(buf[4*i+2:], uint16(k))
	}
	s := MustParse("i16be@2")
	require.NoError(t, s.Check(4))
	cmp, err := s.Compare()
	require.NoError(t, err)
	timsort.Sort(buf, 4, cmp)

	var order []uint16
	for i := range keys {
		order = append(order, binary.BigEndian.Uint16(buf[4*i:]))
	}
	require.Equal(t, []uint16{1, 4, 3, 0, 2, 6, 5}, order)
	require.Equal(t, -1, timsort.FirstUnsorted(buf, 4, cmp))
}
