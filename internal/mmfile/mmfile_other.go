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

//go:build !unix

package mmfile

import "io"

func pageSize() int {
	return standardPageSize
}

// mapData reads the entire file when a writable mapping is not available.
func (m *File) mapData(size int) error {
	data := make([]byte, size)
	if _, err := io.ReadFull(m.f, data); err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *File) flushRange(r Range) error {
	_, err := m.f.WriteAt(m.data[r.Off:r.Off+r.Len], int64(r.Off))
	return err
}

func (m *File) unmapData() error {
	return nil
}
