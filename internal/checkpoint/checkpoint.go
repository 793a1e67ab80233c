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

// Package checkpoint records the pending runs of a partially sorted file so
// that a later process can resume the sort where the last one stopped.
//
// A checkpoint is a small YAML document stored next to the file, or in a
// separate directory, and removed once the sort completes.
package checkpoint

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-timsort/timsort"
)

// Suffix is appended to checkpoint file names.
const Suffix = ".timsort.yaml"

// Checkpoint describes a suspended sort.
type Checkpoint struct {
	File    string    `yaml:"file"`
	Size    int64     `yaml:"size"`
	Stride  int       `yaml:"stride"`
	Key     string    `yaml:"key"`
	Runs    []int     `yaml:"runs"`
	Steps   int       `yaml:"steps"`
	Updated time.Time `yaml:"updated"`
}

// PathFor returns where the checkpoint of file lives. With an empty dir it
// sits next to the file; otherwise it goes into dir under a name that keeps
// files with the same base name apart.
func PathFor(dir, file string) string {
	if dir == "" {
		return file + Suffix
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))
	return filepath.Join(dir, fmt.Sprintf("%s-%08x%s", filepath.Base(file), h.Sum32(), Suffix))
}

// Load reads a checkpoint. A missing checkpoint is reported with an error
// matching os.ErrNotExist.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading checkpoint")
	}
	var c Checkpoint
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing checkpoint %s", path)
	}
	if len(c.Runs) > timsort.MaxRuns {
		err := errors.Newf("checkpoint %s: %d runs, a sort holds at most %d", path, len(c.Runs), timsort.MaxRuns)
		return nil, errors.WithHint(err, "remove the checkpoint to start the sort over")
	}
	for i, n := range c.Runs {
		if n <= 0 {
			return nil, errors.Newf("checkpoint %s: run %d has length %d", path, i, n)
		}
	}
	return &c, nil
}

// Save writes the checkpoint atomically: readers see the old or the new
// version, never a partial one.
func (c *Checkpoint) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating checkpoint directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating checkpoint")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "writing checkpoint")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "writing checkpoint")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "replacing checkpoint")
	}
	return nil
}

// Remove deletes the checkpoint at path. A missing checkpoint is not an
// error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "removing checkpoint")
	}
	return nil
}

// Sorted returns the number of elements covered by the recorded runs.
func (c *Checkpoint) Sorted() int {
	n := 0
	for _, r := range c.Runs {
		n += r
	}
	return n
}

// Matches checks that the checkpoint was written for a file of the given
// size, sorted with the given stride and key.
func (c *Checkpoint) Matches(size int64, stride int, key string) error {
	var err error
	switch {
	case c.Size != size:
		err = errors.Newf("checkpoint is for a %d byte file, %s has %d bytes", c.Size, c.File, size)
	case c.Stride != stride:
		err = errors.Newf("checkpoint is for stride %d, not %d", c.Stride, stride)
	case c.Key != key:
		err = errors.Newf("checkpoint is for key %q, not %q", c.Key, key)
	case stride > 0 && int64(c.Sorted())*int64(stride) > size:
		err = errors.Newf("checkpoint runs cover %d records, %s holds %d", c.Sorted(), c.File, size/int64(stride))
	default:
		return nil
	}
	return errors.WithHint(err, "remove the checkpoint to start the sort over")
}
