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
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-timsort/internal/checkpoint"
	"github.com/ajroetker/go-timsort/internal/mmfile"
	"github.com/ajroetker/go-timsort/timsort"
)

var statusCheckpointDir string

func init() {
	cmd := newStatusCmd()
	cmd.Flags().StringVar(&statusCheckpointDir, "checkpoint-dir", "", "Directory for checkpoints; default is next to each file")
	rootCmd.AddCommand(cmd)
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <file>",
		Short: "Show the checkpoint of a suspended sort",
		Long: `The status command shows the checkpoint left by a suspended sort of a file:
the key and record size it was sorted with, the pending runs and the
estimated progress.

Example:
  recsort status data.rec
  recsort status data.rec --checkpoint-dir /var/tmp/recsort --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args[0])
		},
	}
	return cmd
}

type statusResult struct {
	File       string    `json:"file"`
	Checkpoint string    `json:"checkpoint"`
	Records    int       `json:"records"`
	Stride     int       `json:"stride"`
	Key        string    `json:"key"`
	Runs       []int     `json:"runs"`
	Sorted     int       `json:"sorted"`
	Steps      int       `json:"steps"`
	Progress   int       `json:"progress"`
	Updated    time.Time `json:"updated"`
}

func runStatus(path string) error {
	ckPath := checkpoint.PathFor(statusCheckpointDir, path)
	ck, err := checkpoint.Load(ckPath)
	if errors.Is(err, os.ErrNotExist) {
		if jsonOut {
			return printJSON(map[string]any{"file": path, "checkpoint": nil})
		}
		printInfo("%s: no checkpoint\n", path)
		return nil
	}
	if err != nil {
		return err
	}

	progress, records, err := estimateProgress(path, ck)
	if err != nil {
		return errors.Wrapf(err, "checkpoint %s", ckPath)
	}
	res := statusResult{
		File:       path,
		Checkpoint: ckPath,
		Records:    records,
		Stride:     ck.Stride,
		Key:        ck.Key,
		Runs:       ck.Runs,
		Sorted:     ck.Sorted(),
		Steps:      ck.Steps,
		Progress:   progress,
		Updated:    ck.Updated,
	}
	if jsonOut {
		return printJSON(res)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"File", res.File},
		{"Checkpoint", res.Checkpoint},
		{"Records", humanize.Comma(int64(res.Records))},
		{"Record size", humanize.IBytes(uint64(res.Stride))},
		{"Key", res.Key},
		{"Pending runs", formatRuns(res.Runs)},
		{"Records in runs", humanize.Comma(int64(res.Sorted))},
		{"Steps so far", strconv.Itoa(res.Steps)},
		{"Progress", percent(res.Progress, res.Records)},
		{"Suspended", humanize.Time(res.Updated)},
	})
	if !quiet {
		table.Render()
	}
	return nil
}

// estimateProgress replays the checkpoint's runs into a session over the
// file to compute the progress estimate the resumed sort would start from.
func estimateProgress(path string, ck *checkpoint.Checkpoint) (progress, records int, err error) {
	m, err := mmfile.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		err = errors.CombineErrors(err, m.Close())
	}()
	_, cmp, err := comparator(ck.Key, ck.Stride)
	if err != nil {
		return 0, 0, err
	}
	if err := ck.Matches(int64(m.Size()), ck.Stride, ck.Key); err != nil {
		return 0, 0, err
	}
	if err := checkRecords(path, m.Size(), ck.Stride); err != nil {
		return 0, 0, err
	}

	s := timsort.New(m.Bytes(), ck.Stride, cmp)
	defer s.Finish()
	s.SetRuns(ck.Runs)
	return s.Progress(), s.Size(), nil
}
