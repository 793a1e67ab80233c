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

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-timsort/timsort"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(dir, "/data/a.rec")
	c := &Checkpoint{
		File:    "/data/a.rec",
		Size:    8000,
		Stride:  8,
		Key:     "u32le@0",
		Runs:    []int{512, 128, 32},
		Steps:   17,
		Updated: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c, got)
	require.Equal(t, 672, got.Sorted())
	require.NoError(t, got.Matches(8000, 8, "u32le@0"))

	// Saving again replaces the file and leaves no temporaries behind.
	c.Runs = []int{672}
	require.NoError(t, c.Save(path))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, Remove(path))
	require.NoError(t, Remove(path))
	_, err = Load(path)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPathFor(t *testing.T) {
	require.Equal(t, "x/a.rec"+Suffix, PathFor("", "x/a.rec"))

	p1 := PathFor("ckpt", "/one/a.rec")
	p2 := PathFor("ckpt", "/two/a.rec")
	require.NotEqual(t, p1, p2)
	require.Equal(t, "ckpt", filepath.Dir(p1))
	require.Equal(t, p1, PathFor("ckpt", "/one/a.rec"))
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("runs: [1, 2"), 0644))
	_, err := Load(bad)
	require.Error(t, err)

	zero := filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(zero, []byte("runs: [4, 0]\n"), 0644))
	_, err = Load(zero)
	require.ErrorContains(t, err, "run 1 has length 0")

	deep := filepath.Join(dir, "deep.yaml")
	c := &Checkpoint{File: "a.rec", Size: 8000, Stride: 8, Key: "u32le@0"}
	for range timsort.MaxRuns + 1 {
		c.Runs = append(c.Runs, 1)
	}
	require.NoError(t, c.Save(deep))
	_, err = Load(deep)
	require.ErrorContains(t, err, "87 runs, a sort holds at most 86")
	require.Contains(t, errors.GetAllHints(err), "remove the checkpoint to start the sort over")

	c.Runs = c.Runs[:timsort.MaxRuns]
	require.NoError(t, c.Save(deep))
	_, err = Load(deep)
	require.NoError(t, err)
}

func TestMatches(t *testing.T) {
	c := &Checkpoint{File: "a.rec", Size: 800, Stride: 8, Key: "u32le@0", Runs: []int{60, 40}}
	require.NoError(t, c.Matches(800, 8, "u32le@0"))

	for _, tc := range []struct {
		size   int64
		stride int
		key    string
		msg    string
	}{
		{900, 8, "u32le@0", "800 byte file"},
		{800, 16, "u32le@0", "stride 8"},
		{800, 8, "u64le@0", `key "u32le@0"`},
	} {
		err := c.Matches(tc.size, tc.stride, tc.key)
		require.ErrorContains(t, err, tc.msg)
		require.Contains(t, errors.GetAllHints(err), "remove the checkpoint to start the sort over")
	}

	c.Runs = []int{60, 41}
	require.ErrorContains(t, c.Matches(800, 8, "u32le@0"), "cover 101 records")
}
