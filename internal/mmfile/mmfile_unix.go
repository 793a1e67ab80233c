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

//go:build unix

package mmfile

import (
	"golang.org/x/sys/unix"
)

func pageSize() int {
	if n := unix.Getpagesize(); n > 0 {
		return n
	}
	return standardPageSize
}

func (m *File) mapData(size int) error {
	data, err := unix.Mmap(int(m.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	m.mapped = true
	return nil
}

// flushRange synchronously writes one page-aligned range back to the file.
func (m *File) flushRange(r Range) error {
	return unix.Msync(m.data[r.Off:r.Off+r.Len], unix.MS_SYNC)
}

func (m *File) unmapData() error {
	return unix.Munmap(m.data)
}
