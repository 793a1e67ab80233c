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

package mmfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	for _, tc := range []struct {
		name   string
		ranges []Range
		size   int
		want   []Range
	}{
		{"empty", nil, 1 << 20, nil},
		{"single", []Range{{Off: 10, Len: 5}}, 1 << 20, []Range{{Off: 0, Len: 4096}}},
		{"same-page", []Range{{Off: 10, Len: 5}, {Off: 4000, Len: 10}}, 1 << 20, []Range{{Off: 0, Len: 4096}}},
		{"straddle", []Range{{Off: 4090, Len: 10}}, 1 << 20, []Range{{Off: 0, Len: 8192}}},
		{"adjacent", []Range{{Off: 8192, Len: 1}, {Off: 4096, Len: 1}}, 1 << 20, []Range{{Off: 4096, Len: 8192}}},
		{"gap", []Range{{Off: 20000, Len: 100}, {Off: 0, Len: 1}}, 1 << 20, []Range{{Off: 0, Len: 4096}, {Off: 16384, Len: 4096}}},
		{"clamped", []Range{{Off: 5000, Len: 10}}, 6000, []Range{{Off: 4096, Len: 1904}}},
		{"past-end", []Range{{Off: 9000, Len: 10}}, 6000, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := coalesce(tc.ranges, 4096, tc.size)
			if len(tc.want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOpenModifyFlush(t *testing.T) {
	data := make([]byte, 3*4096+100)
	for i := range data {
		data[i] = byte(i)
	}
	path := writeTemp(t, data)

	m, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, path, m.Path())
	require.Equal(t, len(data), m.Size())
	require.Equal(t, data, m.Bytes())

	buf := m.Bytes()
	buf[5000] = 0xAA
	buf[len(buf)-1] = 0xBB
	m.MarkDirty(5000, 1)
	m.MarkDirty(len(buf)-1, 1)
	m.MarkDirty(0, 0)
	require.Equal(t, []Range{{Off: 4096, Len: 4096}, {Off: 3 * 4096, Len: 100}}, coalesce(m.dirty, 4096, m.Size()))

	require.NoError(t, m.Flush(context.Background()))
	require.Empty(t, m.Pending())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), onDisk[5000])
	require.Equal(t, byte(0xBB), onDisk[len(onDisk)-1])

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.Error(t, m.Flush(context.Background()))
}

func TestCloseFlushes(t *testing.T) {
	path := writeTemp(t, make([]byte, 64))
	m, err := Open(path)
	require.NoError(t, err)
	copy(m.Bytes()[8:], "sorted")
	m.MarkDirty(8, 6)
	require.NoError(t, m.Close())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "sorted", string(onDisk[8:14]))
}

func TestFlushCancelled(t *testing.T) {
	path := writeTemp(t, make([]byte, 64))
	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	m.MarkDirty(0, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Flush(ctx), context.Canceled)
	require.Len(t, m.Pending(), 1)
	require.NoError(t, m.Flush(context.Background()))
	require.Empty(t, m.Pending())
}

func TestOpenEmpty(t *testing.T) {
	path := writeTemp(t, nil)
	m, err := Open(path)
	require.NoError(t, err)
	require.Zero(t, m.Size())
	require.Empty(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}
