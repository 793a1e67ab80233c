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

package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-timsort/internal/checkpoint"
	"github.com/ajroetker/go-timsort/internal/logger"
	"github.com/ajroetker/go-timsort/internal/mmfile"
	"github.com/ajroetker/go-timsort/internal/workerpool"
	"github.com/ajroetker/go-timsort/timsort"
)

var (
	sortStride        int
	sortKey           string
	sortMaxMerge      int
	sortBudget        time.Duration
	sortWorkers       int
	sortCheckpointDir string
)

func init() {
	cmd := newSortCmd()
	cmd.Flags().IntVar(&sortStride, "stride", 8, "Record size in bytes")
	cmd.Flags().StringVar(&sortKey, "key", "u32le", "Key description, e.g. u32le or str@8:16/collate=en")
	cmd.Flags().IntVar(&sortMaxMerge, "max-merge", 0, "Largest merge performed in one step; 0 for no limit")
	cmd.Flags().DurationVar(&sortBudget, "budget", 0, "Suspend each sort to a checkpoint after this long; 0 to run to completion")
	cmd.Flags().IntVar(&sortWorkers, "workers", 0, "Files sorted concurrently; 0 for one per CPU")
	cmd.Flags().StringVar(&sortCheckpointDir, "checkpoint-dir", "", "Directory for checkpoints; default is next to each file")
	rootCmd.AddCommand(cmd)
}

func newSortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort <file>...",
		Short: "Sort record files in place",
		Long: `The sort command sorts each file in place. Files are memory-mapped and only
the pages each sorting step changed are written back.

With --budget, a sort that runs out of time is suspended: its pending runs are
saved to a checkpoint, and the next sort of the same file resumes from there.
Interrupting recsort suspends the same way.

Example:
  recsort sort data.rec
  recsort sort --stride 16 --key 'u64be@8,u32le@0/desc' a.rec b.rec
  recsort sort --budget 2s --max-merge 65536 big.rec`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd.Context(), args)
		},
	}
	return cmd
}

type sortOptions struct {
	stride        int
	key           string
	maxMerge      int
	budget        time.Duration
	checkpointDir string
}

// sortResult is the outcome of one sortFile call.
type sortResult struct {
	File       string        `json:"file"`
	Records    int           `json:"records"`
	Steps      int           `json:"steps"`
	Progress   int           `json:"progress"`
	Done       bool          `json:"done"`
	Resumed    bool          `json:"resumed"`
	Checkpoint string        `json:"checkpoint,omitempty"`
	Stats      timsort.Stats `json:"stats"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func runSort(ctx context.Context, files []string) error {
	if sortMaxMerge < 0 {
		return errors.Newf("--max-merge must not be negative, got %d", sortMaxMerge)
	}
	opts := sortOptions{
		stride:        sortStride,
		key:           sortKey,
		maxMerge:      sortMaxMerge,
		budget:        sortBudget,
		checkpointDir: sortCheckpointDir,
	}
	// Validate the key once up front rather than once per file.
	if _, _, err := comparator(opts.key, opts.stride); err != nil {
		return err
	}
	files, err := uniqueFiles(files)
	if err != nil {
		return err
	}

	pool := workerpool.New(sortWorkers)
	defer pool.Close()

	results := make([]*sortResult, len(files))
	err = pool.Run(ctx, len(files), func(ctx context.Context, i int) error {
		res, err := sortFile(ctx, files[i], opts)
		results[i] = res
		return errors.Wrapf(err, "%s", files[i])
	})

	var done []*sortResult
	for _, res := range results {
		if res != nil {
			done = append(done, res)
		}
	}
	if jsonOut {
		if jerr := printJSON(done); jerr != nil {
			return errors.CombineErrors(err, jerr)
		}
		return err
	}
	for _, res := range done {
		printResult(res)
	}
	return err
}

// uniqueFiles drops repeated files, however they are spelled. Two sessions
// over one mapping would sort the same bytes concurrently.
func uniqueFiles(files []string) ([]string, error) {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", f)
		}
		if real, err := filepath.EvalSymlinks(abs); err == nil {
			abs = real
		}
		if seen[abs] {
			logger.Warn("skipping repeated file", "file", f)
			printVerbose("Skipping %s, already listed\n", f)
			continue
		}
		seen[abs] = true
		out = append(out, f)
	}
	return out, nil
}

func printResult(res *sortResult) {
	st := res.Stats
	if res.Done {
		printInfo("%s: sorted %s records in %d steps (%s)\n",
			res.File, humanize.Comma(int64(res.Records)), res.Steps, res.Elapsed.Round(time.Millisecond))
	} else {
		printInfo("%s: suspended at %s after %d steps, checkpoint %s\n",
			res.File, percent(res.Progress, res.Records), res.Steps, res.Checkpoint)
	}
	printVerbose("  %s compares, %s moves, %s staged, %d merges, %d runs\n",
		humanize.Comma(int64(st.Compares)), humanize.Comma(int64(st.Moves)),
		humanize.Comma(int64(st.Staged)), st.Merges, st.Runs)
}

// sortFile sorts one file, resuming from and suspending to its checkpoint.
// A result is returned whenever the session ran, even if flushing or
// checkpointing then failed.
func sortFile(ctx context.Context, path string, opts sortOptions) (res *sortResult, err error) {
	spec, cmp, err := comparator(opts.key, opts.stride)
	if err != nil {
		return nil, err
	}
	m, err := mmfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.CombineErrors(err, m.Close())
	}()
	if err := checkRecords(path, m.Size(), opts.stride); err != nil {
		return nil, err
	}

	start := time.Now()
	s := timsort.New(m.Bytes(), opts.stride, cmp)
	defer s.Finish()
	if opts.maxMerge > 0 {
		s.SetMaxMergeSize(opts.maxMerge)
	}

	res = &sortResult{File: path, Records: s.Size()}
	ckPath := checkpoint.PathFor(opts.checkpointDir, path)
	ck, err := checkpoint.Load(ckPath)
	switch {
	case err == nil:
		if err := ck.Matches(int64(m.Size()), opts.stride, spec.String()); err != nil {
			return nil, errors.Wrapf(err, "checkpoint %s", ckPath)
		}
		s.SetRuns(ck.Runs)
		res.Resumed = true
		res.Steps = ck.Steps
		printVerbose("Resuming %s from %s (%d runs)\n", path, ckPath, len(ck.Runs))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	logger.Info("sort started", "file", path, "records", s.Size(), "resumed", res.Resumed)

	var deadline time.Time
	if opts.budget > 0 {
		deadline = start.Add(opts.budget)
	}
	// Every invocation takes at least one step, so repeated short budgets
	// still finish.
	suspend := false
	for !s.Done() {
		ok, r := s.Step()
		if !ok {
			break
		}
		res.Steps++
		if !r.Empty() {
			m.MarkDirty(r.Bytes(opts.stride))
		}
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			suspend = !s.Done()
			break
		}
	}

	res.Progress = s.Progress()
	res.Stats = s.Stats()
	res.Elapsed = time.Since(start)
	if err := m.Flush(context.WithoutCancel(ctx)); err != nil {
		return res, err
	}

	if suspend {
		c := &checkpoint.Checkpoint{
			File:    path,
			Size:    int64(m.Size()),
			Stride:  opts.stride,
			Key:     spec.String(),
			Runs:    s.Runs(),
			Steps:   res.Steps,
			Updated: time.Now().UTC(),
		}
		if err := c.Save(ckPath); err != nil {
			return res, err
		}
		res.Checkpoint = ckPath
		logger.Info("sort suspended", "file", path, "steps", res.Steps,
			"progress", res.Progress, "runs", len(c.Runs), "checkpoint", ckPath)
		if ctx.Err() != nil {
			return res, errors.Wrap(ctx.Err(), "sort interrupted")
		}
		return res, nil
	}

	res.Done = true
	if err := checkpoint.Remove(ckPath); err != nil {
		return res, err
	}
	logger.Info("sort finished", "file", path, "steps", res.Steps,
		"compares", res.Stats.Compares, "moves", res.Stats.Moves,
		"merges", res.Stats.Merges, "elapsed", res.Elapsed)
	return res, nil
}
