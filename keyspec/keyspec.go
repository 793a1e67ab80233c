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

// Package keyspec builds comparison functions for fixed-width binary records
// from a short textual description of their key fields.
//
// A key is a comma-separated list of fields, each written as
//
//	type[@offset][:length][/option...]
//
// Fields compare in order; the first field that differs decides. A field
// without an offset starts where the previous field ended.
//
// Types:
//
//	u8 u16le u16be u32le u32be u64le u64be    unsigned integers
//	i8 i16le i16be i32le i32be i64le i64be    two's complement integers
//	f32le f32be f64le f64be                   IEEE 754 floats, NaN first
//	bytes:N                                   raw bytes, unsigned order
//	str:N                                     text padded with NUL bytes
//
// Options:
//
//	desc            reverse the order of this field
//	collate=<tag>   str only: compare with the collation of a BCP 47 tag
//	fold            str only: ignore case
//
// Examples:
//
//	u32le
//	i64be@8,bytes:4/desc
//	str@16:32/collate=sv/fold,u64le@0
package keyspec

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ajroetker/go-timsort/timsort"
)

type kind int

const (
	kindUint kind = iota
	kindInt
	kindFloat
	kindBytes
	kindString
)

type typeInfo struct {
	kind  kind
	width int // 0 for variable-length types
	order binary.ByteOrder
}

var (
	le = binary.LittleEndian
	be = binary.BigEndian
)

var types = map[string]typeInfo{
	"u8":    {kindUint, 1, le},
	"u16le": {kindUint, 2, le},
	"u16be": {kindUint, 2, be},
	"u32le": {kindUint, 4, le},
	"u32be": {kindUint, 4, be},
	"u64le": {kindUint, 8, le},
	"u64be": {kindUint, 8, be},
	"i8":    {kindInt, 1, le},
	"i16le": {kindInt, 2, le},
	"i16be": {kindInt, 2, be},
	"i32le": {kindInt, 4, le},
	"i32be": {kindInt, 4, be},
	"i64le": {kindInt, 8, le},
	"i64be": {kindInt, 8, be},
	"f32le": {kindFloat, 4, le},
	"f32be": {kindFloat, 4, be},
	"f64le": {kindFloat, 8, le},
	"f64be": {kindFloat, 8, be},
	"bytes": {kindBytes, 0, nil},
	"str":   {kindString, 0, nil},
}

const typeHint = "valid types: u8 u16le u16be u32le u32be u64le u64be " +
	"i8 i16le i16be i32le i32be i64le i64be f32le f32be f64le f64be bytes:N str:N"

const optionHint = "valid options: desc, fold, collate=<BCP 47 tag>"

// Field is one key field.
type Field struct {
	Type    string
	Offset  int
	Length  int
	Desc    bool
	Collate string // BCP 47 tag; empty compares bytes unless Fold is set
	Fold    bool
}

// Spec is a parsed key description.
type Spec struct {
	Fields []Field
}

// Parse parses a key description.
func Parse(spec string) (Spec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Spec{}, errors.WithHint(errors.New("keyspec: empty key"), "for example: u32le")
	}
	var s Spec
	next := 0
	for i, part := range strings.Split(spec, ",") {
		f, err := parseField(strings.TrimSpace(part), next)
		if err != nil {
			return Spec{}, errors.Wrapf(err, "key field %d", i+1)
		}
		s.Fields = append(s.Fields, f)
		next = f.Offset + f.Length
	}
	return s, nil
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) Spec {
	s, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func parseField(text string, offset int) (Field, error) {
	head, opts, _ := strings.Cut(text, "/")
	f := Field{Offset: offset, Length: -1}

	if name, n, ok := strings.Cut(head, ":"); ok {
		v, err := strconv.Atoi(n)
		if err != nil || v <= 0 {
			return Field{}, errors.Newf("keyspec: invalid length %q", n)
		}
		f.Length = v
		head = name
	}
	if name, n, ok := strings.Cut(head, "@"); ok {
		v, err := strconv.Atoi(n)
		if err != nil || v < 0 {
			return Field{}, errors.Newf("keyspec: invalid offset %q", n)
		}
		f.Offset = v
		head = name
	}

	info, ok := types[head]
	if !ok {
		return Field{}, errors.WithHint(errors.Newf("keyspec: unknown type %q", head), typeHint)
	}
	f.Type = head
	switch {
	case info.width == 0 && f.Length < 0:
		return Field{}, errors.WithHintf(errors.Newf("keyspec: %s needs a length", head), "for example: %s:16", head)
	case info.width > 0 && f.Length < 0:
		f.Length = info.width
	case info.width > 0 && f.Length != info.width:
		return Field{}, errors.Newf("keyspec: %s is %d bytes wide, not %d", head, info.width, f.Length)
	}

	if opts == "" {
		return f, nil
	}
	for _, opt := range strings.Split(opts, "/") {
		name, val, hasVal := strings.Cut(opt, "=")
		switch name {
		case "desc":
			if hasVal {
				return Field{}, errors.Newf("keyspec: option desc takes no value")
			}
			f.Desc = true
		case "fold":
			if info.kind != kindString {
				return Field{}, errors.Newf("keyspec: option fold applies to str fields only")
			}
			f.Fold = true
		case "collate":
			if info.kind != kindString {
				return Field{}, errors.Newf("keyspec: option collate applies to str fields only")
			}
			if _, err := language.Parse(val); err != nil {
				return Field{}, errors.WithHint(
					errors.Wrapf(err, "keyspec: invalid collation %q", val),
					"use a BCP 47 language tag such as en, de-u-co-phonebk or und")
			}
			f.Collate = val
		default:
			return Field{}, errors.WithHint(errors.Newf("keyspec: unknown option %q", opt), optionHint)
		}
	}
	return f, nil
}

// Width returns the smallest record stride the key fits in.
func (s Spec) Width() int {
	w := 0
	for _, f := range s.Fields {
		w = max(w, f.Offset+f.Length)
	}
	return w
}

// Check verifies that the key fits records of the given stride.
func (s Spec) Check(stride int) error {
	if w := s.Width(); w > stride {
		return errors.WithHintf(
			errors.Newf("keyspec: key %s needs %d bytes, records are %d", s, w, stride),
			"increase --stride or move the key fields")
	}
	return nil
}

// String returns the canonical form of the key, which Parse accepts.
func (s Spec) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func (f Field) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s@%d", f.Type, f.Offset)
	if types[f.Type].width == 0 {
		fmt.Fprintf(&sb, ":%d", f.Length)
	}
	if f.Desc {
		sb.WriteString("/desc")
	}
	if f.Collate != "" {
		sb.WriteString("/collate=" + f.Collate)
	}
	if f.Fold {
		sb.WriteString("/fold")
	}
	return sb.String()
}

// Compare builds a comparison function for the key. Collated fields carry
// a collator, which is not safe for concurrent use: build one comparison
// function per goroutine.
func (s Spec) Compare() (timsort.CompareFunc, error) {
	if len(s.Fields) == 0 {
		return nil, errors.New("keyspec: key has no fields")
	}
	fns := make([]timsort.CompareFunc, len(s.Fields))
	for i, f := range s.Fields {
		fn, err := f.compare()
		if err != nil {
			return nil, errors.Wrapf(err, "key field %d", i+1)
		}
		fns[i] = fn
	}
	if len(fns) == 1 {
		return fns[0], nil
	}
	return func(a, b []byte) int {
		for _, fn := range fns {
			if c := fn(a, b); c != 0 {
				return c
			}
		}
		return 0
	}, nil
}

func (f Field) compare() (timsort.CompareFunc, error) {
	info, ok := types[f.Type]
	if !ok {
		return nil, errors.WithHint(errors.Newf("keyspec: unknown type %q", f.Type), typeHint)
	}
	lo, hi := f.Offset, f.Offset+f.Length

	var fn timsort.CompareFunc
	switch info.kind {
	case kindUint:
		fn = func(a, b []byte) int {
			return cmp.Compare(info.uint(a[lo:hi]), info.uint(b[lo:hi]))
		}
	case kindInt:
		fn = func(a, b []byte) int {
			return cmp.Compare(info.int(a[lo:hi]), info.int(b[lo:hi]))
		}
	case kindFloat:
		fn = func(a, b []byte) int {
			return cmp.Compare(info.float(a[lo:hi]), info.float(b[lo:hi]))
		}
	case kindBytes:
		fn = func(a, b []byte) int {
			return bytes.Compare(a[lo:hi], b[lo:hi])
		}
	case kindString:
		c, err := f.collator()
		if err != nil {
			return nil, err
		}
		if c == nil {
			fn = func(a, b []byte) int {
				return bytes.Compare(trimNUL(a[lo:hi]), trimNUL(b[lo:hi]))
			}
		} else {
			fn = func(a, b []byte) int {
				return c.Compare(trimNUL(a[lo:hi]), trimNUL(b[lo:hi]))
			}
		}
	}

	if f.Desc {
		asc := fn
		fn = func(a, b []byte) int { return asc(b, a) }
	}
	return fn, nil
}

// collator returns nil when the field compares plain bytes.
func (f Field) collator() (*collate.Collator, error) {
	if f.Collate == "" && !f.Fold {
		return nil, nil
	}
	tag := language.Und
	if f.Collate != "" {
		var err error
		if tag, err = language.Parse(f.Collate); err != nil {
			return nil, errors.Wrapf(err, "keyspec: invalid collation %q", f.Collate)
		}
	}
	var opts []collate.Option
	if f.Fold {
		opts = append(opts, collate.IgnoreCase)
	}
	return collate.New(tag, opts...), nil
}

func trimNUL(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}

func (t typeInfo) uint(b []byte) uint64 {
	switch t.width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(t.order.Uint16(b))
	case 4:
		return uint64(t.order.Uint32(b))
	default:
		return t.order.Uint64(b)
	}
}

func (t typeInfo) int(b []byte) int64 {
	switch t.width {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(t.order.Uint16(b)))
	case 4:
		return int64(int32(t.order.Uint32(b)))
	default:
		return int64(t.order.Uint64(b))
	}
}

func (t typeInfo) float(b []byte) float64 {
	if t.width == 4 {
		return float64(math.Float32frombits(t.order.Uint32(b)))
	}
	return math.Float64frombits(t.order.Uint64(b))
}
