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

// Package mmfile maps record files into memory for in-place sorting and
// flushes the pages that sorting steps have changed.
//
// A File accumulates dirty byte ranges as they are reported, page-aligns and
// coalesces them at flush time, and writes them back with msync on Unix. On
// other platforms the file is read into memory and the dirty ranges are
// written back with WriteAt.
package mmfile

import (
	"context"
	"os"
	"slices"

	"github.com/cockroachdb/errors"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is used when the platform does not report one.
	standardPageSize = 4096
)

// Range is a byte range of the file.
type Range struct {
	Off int
	Len int
}

// File is a record file opened for in-place modification.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type File struct {
	path     string
	f        *os.File
	data     []byte
	pageSize int
	dirty    []Range
	mapped   bool
	closed   bool
}

// Open maps the file at path for reading and writing.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	size := info.Size()
	if size > int64(^uint(0)>>1) {
		_ = f.Close()
		return nil, errors.Newf("mmfile: %s too large to map (%d bytes)", path, size)
	}

	m := &File{
		path:     path,
		f:        f,
		pageSize: pageSize(),
		dirty:    make([]Range, 0, defaultRangeCapacity),
	}
	if size > 0 {
		if err := m.mapData(int(size)); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "mapping %s", path)
		}
	}
	return m, nil
}

// Path returns the path the file was opened with.
func (m *File) Path() string { return m.path }

// Bytes returns the file contents. Writes to the slice modify the file once
// the written range is marked dirty and flushed.
func (m *File) Bytes() []byte { return m.data }

// Size returns the file size in bytes.
func (m *File) Size() int { return len(m.data) }

// Mapped reports whether the contents are a shared memory mapping rather
// than a private copy.
func (m *File) Mapped() bool { return m.mapped }

// MarkDirty records that [off, off+n) has been modified.
func (m *File) MarkDirty(off, n int) {
	if n <= 0 {
		return
	}
	m.dirty = append(m.dirty, Range{Off: off, Len: n})
}

// Pending returns the page-aligned, coalesced ranges the next Flush writes.
func (m *File) Pending() []Range {
	return coalesce(m.dirty, m.pageSize, len(m.data))
}

// Flush writes back every dirty range and forgets them. If ctx is cancelled
// mid-flush, some ranges may have been written while others have not; the
// unwritten ones stay dirty.
func (m *File) Flush(ctx context.Context) error {
	if m.closed {
		return errors.Newf("mmfile: %s is closed", m.path)
	}
	ranges := m.Pending()
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			m.dirty = append(m.dirty[:0], ranges[i:]...)
			return err
		}
		if err := m.flushRange(r); err != nil {
			m.dirty = append(m.dirty[:0], ranges[i:]...)
			return errors.Wrapf(err, "flushing %s [%d, %d)", m.path, r.Off, r.Off+r.Len)
		}
	}
	m.dirty = m.dirty[:0]
	return nil
}

// Close flushes outstanding dirty ranges, unmaps the file and closes it.
// Calling Close multiple times is safe.
func (m *File) Close() error {
	if m.closed {
		return nil
	}
	err := m.Flush(context.Background())
	m.closed = true
	if m.data != nil {
		err = errors.CombineErrors(err, m.unmapData())
		m.data = nil
	}
	return errors.CombineErrors(err, m.f.Close())
}

// coalesce page-aligns ranges, clamps them to size, sorts them and merges
// overlapping or adjacent ones.
func coalesce(ranges []Range, page, size int) []Range {
	if len(ranges) == 0 {
		return nil
	}
	aligned := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		start := r.Off / page * page
		end := min((r.Off+r.Len+page-1)/page*page, size)
		if end > start {
			aligned = append(aligned, Range{Off: start, Len: end - start})
		}
	}
	slices.SortFunc(aligned, func(a, b Range) int { return a.Off - b.Off })

	merged := aligned[:0]
	for _, r := range aligned {
		if n := len(merged); n > 0 && r.Off <= merged[n-1].Off+merged[n-1].Len {
			last := &merged[n-1]
			last.Len = max(last.Off+last.Len, r.Off+r.Len) - last.Off
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
